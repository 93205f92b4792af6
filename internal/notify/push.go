package notify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"dose-go/internal/dose"
)

const pushTimeout = 10 * time.Second

// pushMessage is the JSON body posted to the webhook.
type pushMessage struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	RequireInteraction bool   `json:"require_interaction"`
	Tag                string `json:"tag,omitempty"`
}

// PushCapability posts notifications to a JSON webhook, e.g. a self-hosted
// push relay. Display returns immediately and delivers in the background.
type PushCapability struct {
	client *resty.Client
	url    string
	perms  permissionFile
	logger dose.Logger

	inflight sync.WaitGroup
}

var _ Capability = (*PushCapability)(nil)

func NewPushCapability(url, token, permissionPath string, logger dose.Logger) *PushCapability {
	c := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(pushTimeout)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &PushCapability{
		client: c,
		url:    url,
		perms:  permissionFile{path: permissionPath},
		logger: logger,
	}
}

func (p *PushCapability) Supported() bool { return true }

func (p *PushCapability) Permission() dose.Permission {
	return p.perms.load()
}

// Request sends a confirmation push. The relay granting it (2xx) grants
// permission; 401 or 403 denies it. Any other outcome is an error and
// leaves the decision untouched.
func (p *PushCapability) Request(ctx context.Context) (dose.Permission, error) {
	if current := p.perms.load(); current != dose.PermissionDefault {
		return current, nil
	}

	resp, err := p.post(ctx, pushMessage{
		Title: "dose reminders enabled",
		Body:  "You will receive medication and appointment reminders here.",
		Tag:   "permission",
	})
	if err != nil {
		return dose.PermissionDefault, err
	}

	var decided dose.Permission
	switch {
	case resp.IsSuccess():
		decided = dose.PermissionGranted
	case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
		decided = dose.PermissionDenied
	default:
		return dose.PermissionDefault, fmt.Errorf("push relay returned status %d", resp.StatusCode())
	}
	if err := p.perms.save(decided); err != nil {
		return decided, err
	}
	return decided, nil
}

func (p *PushCapability) Display(title string, opts dose.ShowOptions) error {
	msg := pushMessage{
		Title:              title,
		Body:               opts.Body,
		RequireInteraction: opts.RequireInteraction,
		Tag:                opts.Tag,
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()

		resp, err := p.post(ctx, msg)
		if err != nil {
			p.logger.Warn("push notification failed", "tag", msg.Tag, "error", err)
			return
		}
		if !resp.IsSuccess() {
			p.logger.Warn("push relay rejected notification", "tag", msg.Tag, "status", resp.StatusCode())
		}
	}()
	return nil
}

// Wait blocks until every in-flight Display has finished.
func (p *PushCapability) Wait() {
	p.inflight.Wait()
}

func (p *PushCapability) post(ctx context.Context, msg pushMessage) (*resty.Response, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&msg).
		Post(p.url)
	if err != nil {
		return nil, fmt.Errorf("push request: %w", err)
	}
	return resp, nil
}
