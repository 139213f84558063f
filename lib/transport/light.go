package transport

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"github.com/Legendtss/price-tracker/lib/restyutil"
	"github.com/Legendtss/price-tracker/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
)

var instrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput enables HTTP transcript dumping on light
// clients created after the call.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	instrumentOutput = out
}

// Light is the plain HTTP GET transport. It mimics a real browser
// closely enough for sources that only do header-level bot checks.
type Light struct {
	client *resty.Client
}

func NewLight(timeout time.Duration) *Light {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetTimeout(timeout)
	telemetry.InstrumentResty(client, "transport/light")
	restyutil.InstrumentClient(client, instrumentOutput)

	return &Light{client: client}
}

func (l *Light) Fetch(ctx context.Context, url string, opts FetchOptions) (string, error) {
	req := l.client.R().
		SetContext(ctx).
		// rotated per request so repeated queries don't present one
		// fingerprint to the same source
		SetHeader("User-Agent", browser.Random()).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetHeader("Upgrade-Insecure-Requests", "1")
	if opts.Referer != "" {
		req.SetHeader("Referer", opts.Referer)
	}

	res, err := req.Get(url)
	if err != nil {
		return "", err
	}
	if res.StatusCode() != 200 {
		return "", fmt.Errorf("unexpected status %d fetching %s", res.StatusCode(), url)
	}
	return res.String(), nil
}
