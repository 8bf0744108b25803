package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/telekom/graphctl/pkg/graphctl/client"
	"github.com/telekom/graphctl/pkg/graphctl/session"
)

var (
	// ErrLocalFileNotFound is returned when the photo to upload does not exist. It is
	// always joined with fs.ErrNotExist.
	ErrLocalFileNotFound = errors.New("local file not found")
	ErrInvalidArgument   = errors.New("invalid argument")
)

const (
	DefaultArtifactsDir = "artifacts"
	DefaultDownloadFile = "profile.jpg"
	DefaultUploadFile   = "new-profile.jpg"

	photoPath = "/me/photo/$value"
)

type Facade struct {
	session      *session.Session
	artifactsDir string
	downloadFile string
	uploadFile   string
	logger       *zap.SugaredLogger
}

type Option func(*Facade)

func WithArtifactsDir(dir string) Option {
	return func(f *Facade) {
		if dir != "" {
			f.artifactsDir = dir
		}
	}
}

// WithPhotoFiles sets the file names, relative to the artifacts directory, that
// GetUserPhoto writes and UpdateUserPhoto reads.
func WithPhotoFiles(download, upload string) Option {
	return func(f *Facade) {
		if download != "" {
			f.downloadFile = download
		}
		if upload != "" {
			f.uploadFile = upload
		}
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(f *Facade) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func New(sess *session.Session, opts ...Option) *Facade {
	f := &Facade{
		session:      sess,
		artifactsDir: DefaultArtifactsDir,
		downloadFile: DefaultDownloadFile,
		uploadFile:   DefaultUploadFile,
		logger:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DownloadPath is where GetUserPhoto stores the photo.
func (f *Facade) DownloadPath() string {
	return filepath.Join(f.artifactsDir, f.downloadFile)
}

// UploadPath is the photo UpdateUserPhoto sends.
func (f *Facade) UploadPath() string {
	return filepath.Join(f.artifactsDir, f.uploadFile)
}

func (f *Facade) client() (*client.Client, error) {
	if f == nil || f.session == nil {
		return nil, session.ErrSessionNotInitialized
	}
	return f.session.Client()
}

// GetCurrentUser returns the display name, mail and user principal name of the signed-in
// user as returned by the service.
func (f *Facade) GetCurrentUser(ctx context.Context) (json.RawMessage, error) {
	c, err := f.client()
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, client.Request{
		Operation: "getUser",
		Method:    http.MethodGet,
		Path:      "/me",
		Query:     url.Values{"$select": {"displayName,mail,userPrincipalName"}},
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("%w: getUser returned a non-JSON body", client.ErrRemoteAPI)
	}
	return json.RawMessage(resp.Body), nil
}

// GetInboxMessages returns at most InboxLimit inbox messages, newest first.
func (f *Facade) GetInboxMessages(ctx context.Context) (*MessageCollection, error) {
	c, err := f.client()
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, client.Request{
		Operation: "getInbox",
		Method:    http.MethodGet,
		Path:      "/me/mailFolders/inbox/messages",
		Query: url.Values{
			"$select":  {"from,isRead,receivedDateTime,subject"},
			"$top":     {strconv.Itoa(InboxLimit)},
			"$orderby": {"receivedDateTime DESC"},
		},
	})
	if err != nil {
		return nil, err
	}
	var out MessageCollection
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	slices.SortStableFunc(out.Value, func(a, b Message) int {
		return b.ReceivedDateTime.Compare(a.ReceivedDateTime)
	})
	if len(out.Value) > InboxLimit {
		f.logger.Debugw("Service returned more messages than requested", "count", len(out.Value), "limit", InboxLimit)
		out.Value = out.Value[:InboxLimit]
	}
	if out.Value == nil {
		out.Value = []Message{}
	}
	return &out, nil
}

// SendMail sends a plain text message to a single recipient from the signed-in user.
func (f *Facade) SendMail(ctx context.Context, subject, body, recipient string) (*SendReceipt, error) {
	c, err := f.client()
	if err != nil {
		return nil, err
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidArgument)
	}
	resp, err := c.Do(ctx, client.Request{
		Operation: "sendMail",
		Method:    http.MethodPost,
		Path:      "/me/sendMail",
		Body: sendMailRequest{Message: outgoingMessage{
			Subject:      subject,
			Body:         ItemBody{ContentType: "text", Content: body},
			ToRecipients: []Recipient{{EmailAddress: EmailAddress{Address: recipient}}},
		}},
	})
	if err != nil {
		return nil, err
	}
	f.logger.Debugw("Mail accepted", "status", resp.StatusCode, "requestID", resp.RequestID)
	return &SendReceipt{StatusCode: resp.StatusCode, RequestID: resp.RequestID}, nil
}

// GetUserPhoto downloads the signed-in user's photo to DownloadPath, replacing any
// existing file.
func (f *Facade) GetUserPhoto(ctx context.Context) (*PhotoArtifact, error) {
	c, err := f.client()
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, client.Request{
		Operation: "getPhoto",
		Method:    http.MethodGet,
		Path:      photoPath,
		Accept:    "image/*",
	})
	if err != nil {
		return nil, err
	}
	path := f.DownloadPath()
	if err := writeFile(path, resp.Body); err != nil {
		return nil, err
	}
	f.logger.Debugw("Saved profile photo", "path", path, "bytes", len(resp.Body))
	return &PhotoArtifact{Path: path, Bytes: len(resp.Body), ContentType: resp.Header.Get("Content-Type")}, nil
}

// UpdateUserPhoto uploads UploadPath as the signed-in user's photo.
func (f *Facade) UpdateUserPhoto(ctx context.Context) (*PhotoArtifact, error) {
	c, err := f.client()
	if err != nil {
		return nil, err
	}
	path := f.UploadPath()
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	if _, err := c.Do(ctx, client.Request{
		Operation:   "updatePhoto",
		Method:      http.MethodPut,
		Path:        photoPath,
		RawBody:     data,
		ContentType: contentType,
	}); err != nil {
		return nil, err
	}
	f.logger.Debugw("Uploaded profile photo", "path", path, "bytes", len(data))
	return &PhotoArtifact{Path: path, Bytes: len(data), ContentType: contentType}, nil
}

// SyncPhoto downloads the current photo and then uploads the replacement. The first
// failure stops the sequence and is returned.
func (f *Facade) SyncPhoto(ctx context.Context) (*SyncResult, error) {
	downloaded, err := f.GetUserPhoto(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}
	uploaded, err := f.UpdateUserPhoto(ctx)
	if err != nil {
		return &SyncResult{Downloaded: downloaded}, fmt.Errorf("failed to upload photo: %w", err)
	}
	return &SyncResult{Downloaded: downloaded, Uploaded: uploaded}, nil
}

func writeFile(path string, data []byte) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close %s: %w", path, cerr))
		}
	}()
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrLocalFileNotFound, path, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
