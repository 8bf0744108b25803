package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telekom/graphctl/pkg/graphctl/graph"
	"github.com/telekom/graphctl/pkg/graphctl/output"
	"github.com/telekom/graphctl/pkg/system"
)

const (
	defaultSubject = "Testing Microsoft Graph"
	defaultBody    = "Hello world!"
)

func NewMeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			facade, err := rt.Facade()
			if err != nil {
				return err
			}
			raw, err := facade.GetCurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if rt.Format() == output.FormatJSON {
				return output.WriteObject(rt.Writer(), output.FormatJSON, raw)
			}
			user, err := graph.DecodeUser(raw)
			if err != nil {
				return err
			}
			return rt.render(user, func(w io.Writer) {
				output.WriteUserTable(w, user)
			})
		},
	}
}

func NewInboxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: fmt.Sprintf("List the %d newest inbox messages", graph.InboxLimit),
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			facade, err := rt.Facade()
			if err != nil {
				return err
			}
			inbox, err := facade.GetInboxMessages(cmd.Context())
			if err != nil {
				return err
			}
			return rt.render(inbox, func(w io.Writer) {
				output.WriteInboxTable(w, inbox)
			})
		},
	}
}

type sendOptions struct {
	subject string
	body    string
	to      string
}

func NewSendCommand() *cobra.Command {
	opts := sendOptions{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a plain text mail",
		Long:  "Send a plain text mail. Without --to the mail is sent to the signed-in user.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			facade, err := rt.Facade()
			if err != nil {
				return err
			}
			receipt, err := sendMail(cmd.Context(), rt, facade, opts)
			if err != nil {
				return err
			}
			return rt.render(receipt, func(w io.Writer) {
				output.WriteReceipt(w, receipt)
			})
		},
	}
	cmd.Flags().StringVar(&opts.subject, "subject", defaultSubject, "Mail subject")
	cmd.Flags().StringVar(&opts.body, "body", defaultBody, "Mail body (plain text)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Recipient address (defaults to the signed-in user)")
	return cmd
}

func sendMail(ctx context.Context, rt *runtimeState, facade *graph.Facade, opts sendOptions) (*graph.SendReceipt, error) {
	to := strings.TrimSpace(opts.to)
	if to == "" {
		raw, err := facade.GetCurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		user, err := graph.DecodeUser(raw)
		if err != nil {
			return nil, err
		}
		to = user.PreferredAddress()
		if to == "" {
			return nil, errors.New("the signed-in user has no mail address; pass --to")
		}
	}
	receipt, err := facade.SendMail(ctx, opts.subject, opts.body, to)
	if err != nil {
		return nil, err
	}
	rt.Logger().Infow("Mail sent", system.OperationFields("sendMail", receipt.RequestID)...)
	return receipt, nil
}

func NewPhotoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Download or replace the profile photo",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Download the profile photo to <artifacts-dir>/" + graph.DefaultDownloadFile,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rt, facade, err := runtimeAndFacade(cmd)
				if err != nil {
					return err
				}
				artifact, err := facade.GetUserPhoto(cmd.Context())
				if err != nil {
					return err
				}
				return rt.render(artifact, func(w io.Writer) {
					output.WritePhotoTable(w, "download", artifact)
				})
			},
		},
		&cobra.Command{
			Use:   "put",
			Short: "Upload <artifacts-dir>/" + graph.DefaultUploadFile + " as the profile photo",
			RunE: func(cmd *cobra.Command, _ []string) error {
				rt, facade, err := runtimeAndFacade(cmd)
				if err != nil {
					return err
				}
				artifact, err := facade.UpdateUserPhoto(cmd.Context())
				if err != nil {
					return err
				}
				return rt.render(artifact, func(w io.Writer) {
					output.WritePhotoTable(w, "upload", artifact)
				})
			},
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Download the current photo, then upload the replacement",
			RunE: func(cmd *cobra.Command, _ []string) error {
				rt, facade, err := runtimeAndFacade(cmd)
				if err != nil {
					return err
				}
				result, err := facade.SyncPhoto(cmd.Context())
				if err != nil {
					return err
				}
				return rt.render(result, func(w io.Writer) {
					output.WriteSyncTable(w, result)
				})
			},
		},
	)
	return cmd
}

func runtimeAndFacade(cmd *cobra.Command) (*runtimeState, *graph.Facade, error) {
	rt, err := getRuntime(cmd)
	if err != nil {
		return nil, nil, err
	}
	facade, err := rt.Facade()
	if err != nil {
		return nil, nil, err
	}
	return rt, facade, nil
}
