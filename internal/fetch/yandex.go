package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	yandexClientPrefix = "/client/disk/"
	yandexAPIBase      = "https://cloud-api.yandex.net/v1/disk/resources/download"
)

// IsYandexDisk reports whether u points into a Yandex Disk web client.
func IsYandexDisk(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "disk.yandex.ru" || host == "disk.yandex.com"
}

// YandexDisk downloads files from the owner's Yandex Disk through the REST
// API: the web link's path is resolved to a one-off download href first.
type YandexDisk struct {
	HTTP    *HTTP
	Token   string
	APIBase string
}

func NewYandexDisk(h *HTTP, token string) *YandexDisk {
	return &YandexDisk{HTTP: h, Token: token, APIBase: yandexAPIBase}
}

// DiskPath converts a web client link into a disk path,
// e.g. ".../client/disk/hw1/jdoe.py" -> "hw1/jdoe.py".
func DiskPath(rawURL string) string {
	if i := strings.Index(rawURL, yandexClientPrefix); i >= 0 {
		p := rawURL[i+len(yandexClientPrefix):]
		if dec, err := url.PathUnescape(p); err == nil {
			return dec
		}
		return p
	}
	return rawURL
}

func (y *YandexDisk) Fetch(ctx context.Context, rawURL string, w io.Writer) error {
	href, err := y.downloadHref(ctx, DiskPath(rawURL))
	if err != nil {
		return err
	}
	return y.HTTP.Fetch(ctx, href, w)
}

func (y *YandexDisk) downloadHref(ctx context.Context, diskPath string) (string, error) {
	q := url.Values{"path": {diskPath}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.APIBase+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	if y.Token != "" {
		req.Header.Set("Authorization", "OAuth "+y.Token)
	}
	resp, err := y.HTTP.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("yandex disk %q: %w", diskPath, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	href := gjson.GetBytes(body, "href").String()
	if href == "" {
		return "", fmt.Errorf("yandex disk %q: no download href in response", diskPath)
	}
	return href, nil
}
