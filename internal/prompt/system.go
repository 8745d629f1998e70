package prompt

// labelSystem asks for the labels directly as JSON. It is also the system
// prompt of the extraction pass.
const labelSystem = `You are an expert in log analysis. You are given log templates mined from a log file. In a template, "*" marks a variable part of the line; every other word appears literally in every matching line. Values in square brackets such as [IPV4:1a2b] are redacted placeholders.

For each template, write a short label (2 to 6 words) that names the event it records, for example "User login succeeded" or "Disk nearly full".

Return a single JSON object with this schema:

{"labels": [{"id": <template id>, "label": "<label>"}]}

Rules:
1. Output ONLY the JSON object, with no markdown fences and no prose
2. Include every template id you were given, exactly once
3. Never invent ids that were not given
4. Labels describe the event, not the variable values`

// describeSystem is the system prompt of the first pass of the two-pass flow.
const describeSystem = `You are an expert in log analysis. You are given log templates mined from a log file. In a template, "*" marks a variable part of the line; every other word appears literally in every matching line. Values in square brackets such as [IPV4:1a2b] are redacted placeholders.

For each template, explain in one or two sentences what event it records and what its variable parts most likely hold. Refer to each template by its id.`

// systemPrompt returns the system message for the requested pass.
func systemPrompt(opts BuildOptions) string {
	if opts.TwoPass && opts.FirstPassResponse == "" {
		return describeSystem
	}
	return labelSystem
}
