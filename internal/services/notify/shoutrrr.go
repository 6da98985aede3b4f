package notify

import (
	"fmt"
	"io"
	"log"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// ShoutrrrChannel delivers alerts through the push gateway configured via
// shoutrrr URLs (the deployment's replacement for direct FCM access).
// One sender covers all URLs.
type ShoutrrrChannel struct {
	sender *router.ServiceRouter
}

func NewShoutrrrChannel(urls []string, timeout time.Duration) (*ShoutrrrChannel, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one URL is required")
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender: %w", err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrChannel{sender: sender}, nil
}

func (c *ShoutrrrChannel) Name() string { return "shoutrrr" }

func (c *ShoutrrrChannel) Send(userID int64, n Notification) error {
	params := stypes.Params{}
	params.SetTitle(n.Title)

	body := fmt.Sprintf("%s (user %d, image %d)\n%s", n.Body, userID, n.ImageRecordID, n.SourceURL)

	errs := c.sender.Send(body, &params)
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
