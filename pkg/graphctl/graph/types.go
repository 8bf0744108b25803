package graph

import (
	"encoding/json"
	"fmt"
	"time"
)

// InboxLimit is the maximum number of messages GetInboxMessages returns.
const InboxLimit = 25

// User is the subset of the profile selected by GetCurrentUser.
type User struct {
	DisplayName       string `json:"displayName" yaml:"displayName"`
	Mail              string `json:"mail,omitempty" yaml:"mail,omitempty"`
	UserPrincipalName string `json:"userPrincipalName" yaml:"userPrincipalName"`
}

// DecodeUser parses a payload returned by GetCurrentUser.
func DecodeUser(raw json.RawMessage) (User, error) {
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, fmt.Errorf("failed to decode user: %w", err)
	}
	return u, nil
}

// PreferredAddress is the mail address, falling back to the user principal name.
func (u User) PreferredAddress() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

type EmailAddress struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Address string `json:"address" yaml:"address"`
}

type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress" yaml:"emailAddress"`
}

type ItemBody struct {
	ContentType string `json:"contentType" yaml:"contentType"`
	Content     string `json:"content" yaml:"content"`
}

type Message struct {
	ID               string     `json:"id,omitempty" yaml:"id,omitempty"`
	Subject          string     `json:"subject" yaml:"subject"`
	From             *Recipient `json:"from,omitempty" yaml:"from,omitempty"`
	IsRead           bool       `json:"isRead" yaml:"isRead"`
	ReceivedDateTime time.Time  `json:"receivedDateTime" yaml:"receivedDateTime"`
}

// Sender is the display name of the sender, or its address, or "NONE".
func (m Message) Sender() string {
	if m.From == nil {
		return "NONE"
	}
	if m.From.EmailAddress.Name != "" {
		return m.From.EmailAddress.Name
	}
	if m.From.EmailAddress.Address != "" {
		return m.From.EmailAddress.Address
	}
	return "NONE"
}

type MessageCollection struct {
	Value    []Message `json:"value" yaml:"value"`
	NextLink string    `json:"@odata.nextLink,omitempty" yaml:"nextLink,omitempty"`
}

// MoreAvailable reports whether the inbox holds messages beyond the returned page.
func (c *MessageCollection) MoreAvailable() bool {
	return c != nil && c.NextLink != ""
}

type outgoingMessage struct {
	Subject      string      `json:"subject"`
	Body         ItemBody    `json:"body"`
	ToRecipients []Recipient `json:"toRecipients"`
}

type sendMailRequest struct {
	Message outgoingMessage `json:"message"`
}

// SendReceipt acknowledges an accepted sendMail request.
type SendReceipt struct {
	StatusCode int    `json:"statusCode" yaml:"statusCode"`
	RequestID  string `json:"requestId,omitempty" yaml:"requestId,omitempty"`
}

// PhotoArtifact describes a photo written to or read from the local filesystem.
type PhotoArtifact struct {
	Path        string `json:"path" yaml:"path"`
	Bytes       int    `json:"bytes" yaml:"bytes"`
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
}

// SyncResult is the outcome of SyncPhoto.
type SyncResult struct {
	Downloaded *PhotoArtifact `json:"downloaded" yaml:"downloaded"`
	Uploaded   *PhotoArtifact `json:"uploaded" yaml:"uploaded"`
}
