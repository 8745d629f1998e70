// Package prompt builds the messages that ask a language model to name
// templates, and reads the labels back out of its answer.
//
// Templates reach the model already redacted. Each one is listed with its id
// and line count, and the model is asked for a JSON object mapping ids to
// short labels:
//
//	{"labels": [{"id": 0, "label": "User login"}]}
//
// Small models do not always manage JSON on the first try. With TwoPass set,
// [Build] first asks for a free-form description of each template; calling it
// again with FirstPassResponse set prefills that answer as the assistant turn
// and asks for the JSON extraction only.
//
//	msgs, _ := prompt.Build(prompt.BuildOptions{Templates: ts})
//	resp, _ := provider.Chat(ctx, msgs, &llm.ChatOptions{JSON: true})
//	labels, err := prompt.ParseLabels(resp.Content, ts)
package prompt
