package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// DeviceCodePrompt carries what the user needs to finish sign-in on another device.
type DeviceCodePrompt struct {
	VerificationURI         string
	VerificationURIComplete string
	UserCode                string
	ExpiresIn               time.Duration
}

func (p DeviceCodePrompt) Message() string {
	return fmt.Sprintf("To sign in, use a web browser to open the page %s and enter the code %s to authenticate.",
		p.VerificationURI, p.UserCode)
}

// PromptSink displays a device code to a human. Show is called exactly once per exchange;
// an error aborts the exchange.
type PromptSink interface {
	Show(ctx context.Context, prompt DeviceCodePrompt) error
}

// PromptFunc adapts a function to PromptSink.
type PromptFunc func(ctx context.Context, prompt DeviceCodePrompt) error

func (f PromptFunc) Show(ctx context.Context, prompt DeviceCodePrompt) error {
	return f(ctx, prompt)
}

// ConsolePrompt prints the device code message to W (stdout when nil).
type ConsolePrompt struct {
	W io.Writer
}

func (c ConsolePrompt) Show(_ context.Context, prompt DeviceCodePrompt) error {
	w := c.W
	if w == nil {
		w = os.Stdout
	}
	if _, err := fmt.Fprintln(w, prompt.Message()); err != nil {
		return err
	}
	if prompt.ExpiresIn > 0 {
		_, err := fmt.Fprintf(w, "The code expires in %s.\n", prompt.ExpiresIn.Round(time.Second))
		return err
	}
	return nil
}

// NonInteractivePrompt refuses to show codes, so any exchange fails fast.
type NonInteractivePrompt struct{}

func (NonInteractivePrompt) Show(context.Context, DeviceCodePrompt) error {
	return ErrPromptDisabled
}
