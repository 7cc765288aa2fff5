package meeting

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"lurnex_backend/internals/configs"
	"lurnex_backend/internals/helpers/apperr"
)

// tokenEarlyExpiry refreshes the server-to-server token a minute before Zoom
// would reject it.
const tokenEarlyExpiry = 60 * time.Second

// ZoomClient talks to the Zoom REST API with an account-credentials token
// that is cached per client and refreshed lazily.
type ZoomClient struct {
	baseURL string
	http    *http.Client
}

type fetchSource struct {
	ctx context.Context
	cfg *clientcredentials.Config
}

func (s fetchSource) Token() (*oauth2.Token, error) { return s.cfg.Token(s.ctx) }

// NewZoomClient builds a client; ctx may carry oauth2.HTTPClient for tests.
func NewZoomClient(ctx context.Context, cfg configs.ZoomConfig) *ZoomClient {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
	}
	ts := oauth2.ReuseTokenSourceWithExpiry(nil, fetchSource{ctx: ctx, cfg: cc}, tokenEarlyExpiry)

	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = 15 * time.Second
	return &ZoomClient{baseURL: strings.TrimRight(cfg.APIBaseURL, "/"), http: hc}
}

type zoomMeetingRequest struct {
	Topic     string              `json:"topic"`
	Type      int                 `json:"type"`
	StartTime string              `json:"start_time"`
	Duration  int                 `json:"duration"`
	Timezone  string              `json:"timezone,omitempty"`
	Settings  zoomMeetingSettings `json:"settings"`
}

type zoomMeetingSettings struct {
	HostVideo        bool `json:"host_video"`
	ParticipantVideo bool `json:"participant_video"`
	JoinBeforeHost   bool `json:"join_before_host"`
	MuteUponEntry    bool `json:"mute_upon_entry"`
	WaitingRoom      bool `json:"waiting_room"`
}

type zoomMeetingResponse struct {
	ID      int64  `json:"id"`
	JoinURL string `json:"join_url"`
}

// CreateMeeting schedules a Zoom meeting (type 2) and returns its join URL.
func (z *ZoomClient) CreateMeeting(ctx context.Context, req Request) (string, error) {
	body, err := sonic.Marshal(zoomMeetingRequest{
		Topic:     req.Topic,
		Type:      2,
		StartTime: req.Start.UTC().Format(time.RFC3339),
		Duration:  req.DurationMinutes,
		Timezone:  req.Timezone,
		Settings: zoomMeetingSettings{
			HostVideo:        true,
			ParticipantVideo: true,
			JoinBeforeHost:   true,
			MuteUponEntry:    true,
		},
	})
	if err != nil {
		return "", apperr.ErrMeetingLink.Wrap(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, z.baseURL+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return "", apperr.ErrMeetingLink.Wrap(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := z.http.Do(httpReq)
	if err != nil {
		return "", apperr.ErrMeetingLink.Wrap(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", apperr.ErrMeetingLink.Wrap(fmt.Errorf("zoom responded %d: %s", resp.StatusCode, truncate(raw, 200)))
	}

	var out zoomMeetingResponse
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return "", apperr.ErrMeetingLink.Wrap(err)
	}
	if out.JoinURL == "" {
		return "", apperr.ErrMeetingLink.Wrap(fmt.Errorf("zoom response has no join_url"))
	}
	return out.JoinURL, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
