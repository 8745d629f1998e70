// Package llm puts chat-capable language models behind one Provider
// interface so commands can ask for template labels without knowing which
// backend answers.
//
// Providers live in subpackages that define their own mirror types. This
// package converts between the two in small adapters, which keeps the
// dependency pointing from llm to the provider and never back.
//
//	provider, err := llm.NewProvider(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	if err := provider.Heartbeat(ctx); err != nil {
//	    return err
//	}
//	resp, err := provider.Chat(ctx, []llm.Message{
//	    {Role: llm.RoleSystem, Content: system},
//	    {Role: llm.RoleUser, Content: user},
//	}, &llm.ChatOptions{Temperature: 0})
//
// Errors from providers wrap ErrProviderUnavailable or ErrContextCanceled and
// can be checked with errors.Is.
package llm
