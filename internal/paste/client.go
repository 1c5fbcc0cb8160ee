// Package paste uploads text to a hastebin server and fetches text attachments from chat.
package paste

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/ratelimit"
)

// DefaultExtension is appended to paste URLs when the contents have no filename.
const DefaultExtension = ".cs"

// User-facing failure messages.
const (
	MsgTooLarge      = "Attachment is too large to paste."
	MsgEmpty         = "Attachment contained no visible text, could not paste."
	MsgHandleFailed  = "Failed to handle attachment."
	MsgUploadFailed  = "Failed to upload paste."
	MsgRateLimited   = "You are pasting too quickly, please wait a minute."
	MsgNoAttachments = "No attachments found, could not paste."
	MsgTooMany       = "Message contained too many attachments, only one attachment per message is supported."
)

// ErrUnsupported marks attachments the bot ignores silently.
var ErrUnsupported = errors.New("attachment type is not supported")

// Contents is text ready for upload. Filename is empty for pasted message bodies.
type Contents struct {
	Filename string
	Text     string
}

// Attachment describes a file attached to a chat message.
type Attachment struct {
	Filename string
	URL      string
	Size     int64
}

// Config configures a Client.
type Config struct {
	BaseURL           string // e.g. https://hst.sh
	MaxAttachmentSize int64
}

// Client talks to a hastebin server. Uploads are rate limited per user.
type Client struct {
	baseURL           string
	maxAttachmentSize int64
	httpClient        *http.Client
	limiter           *ratelimit.KeyedRateLimiter
	logger            *slog.Logger
}

// NewClient creates a new paste client.
func NewClient(cfg Config, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Client {
	return &Client{
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		maxAttachmentSize: cfg.MaxAttachmentSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
		logger:  logger,
	}
}

type documentResponse struct {
	Key string `json:"key"`
}

// Upload stores p on the hastebin server and returns its URL.
// The URL ends with the filename's extension, or DefaultExtension.
func (c *Client) Upload(ctx context.Context, userID string, p Contents) (string, error) {
	if !c.limiter.Allow(userID) {
		c.logger.Warn("paste rate limited", "user_id", userID)
		return "", errors.RateLimited(MsgRateLimited)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", strings.NewReader(p.Text))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, MsgUploadFailed)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, MsgUploadFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", errors.Wrap(fmt.Errorf("status %d", resp.StatusCode), errors.CodeInternal, MsgUploadFailed)
	}

	var doc documentResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&doc); err != nil {
		return "", errors.Wrap(fmt.Errorf("parse response: %w", err), errors.CodeInternal, MsgUploadFailed)
	}
	if doc.Key == "" {
		return "", errors.Wrap(errors.New("response has no key"), errors.CodeInternal, MsgUploadFailed)
	}

	ext := DefaultExtension
	if p.Filename != "" {
		ext = path.Ext(p.Filename)
	}
	url := c.baseURL + "/" + doc.Key + ext

	c.logger.Debug("paste uploaded", "url", url, "bytes", len(p.Text))
	return url, nil
}

// Download fetches a supported text attachment.
// Unsupported attachments return ErrUnsupported; other failures carry a message
// suitable for the chat reply.
func (c *Client) Download(ctx context.Context, a Attachment) (Contents, error) {
	if !IsSupportedAttachment(a.Filename) {
		return Contents{}, ErrUnsupported
	}
	if a.Size >= c.maxAttachmentSize {
		c.logger.Warn("attachment too large to paste", "filename", a.Filename, "size", a.Size, "max", c.maxAttachmentSize)
		return Contents{}, errors.Validation(MsgTooLarge)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return Contents{}, errors.Wrap(err, errors.CodeInternal, MsgHandleFailed)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Contents{}, errors.Wrap(err, errors.CodeInternal, MsgHandleFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Contents{}, errors.Wrap(fmt.Errorf("status %d", resp.StatusCode), errors.CodeInternal, MsgHandleFailed)
	}

	// The reported size can lie; never read past the limit.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxAttachmentSize))
	if err != nil {
		return Contents{}, errors.Wrap(err, errors.CodeInternal, MsgHandleFailed)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return Contents{}, errors.Validation(MsgEmpty)
	}

	return Contents{Filename: a.Filename, Text: text}, nil
}
