package whapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ipLookupURL = "https://api.myip.com/"

// ResolveWebhookURL builds the public webhook URL to register with the
// gateway. A host of "localhost" means no public host is configured, so the
// external IP is looked up and the dev port appended.
func ResolveWebhookURL(ctx context.Context, host, port string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("webhook host cannot be empty")
	}

	base := strings.TrimRight(host, "/")
	if host == "localhost" {
		ip, err := externalIP(ctx)
		if err != nil {
			return "", fmt.Errorf("resolving external ip: %w", err)
		}
		base = "http://" + ip + ":" + port
	}
	return base + "/webhook", nil
}

func externalIP(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ipLookupURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ip lookup: status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// The service answers JSON with a text/html content type.
	var parsed struct {
		IP string `json:"ip"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.IP == "" {
		return "", fmt.Errorf("ip lookup: empty ip")
	}
	return parsed.IP, nil
}
