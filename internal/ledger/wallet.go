package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Wallet submits metadata transactions on the hiker's behalf. Signing
// and key custody live behind this interface; the coordinator only sees
// transaction references. The recipient is the script address the
// proof transaction pays into.
type Wallet interface {
	SubmitMetadata(ctx context.Context, label uint, recipient string, metadata any) (string, error)
}

// BridgeWallet talks to an external wallet-bridge service that holds
// the signing session. Keys never pass through this process.
type BridgeWallet struct {
	baseURL string
	http    *http.Client
}

func NewBridgeWallet(baseURL string) *BridgeWallet {
	return &BridgeWallet{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *BridgeWallet) SubmitMetadata(ctx context.Context, label uint, recipient string, metadata any) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"label":     label,
		"recipient": recipient,
		"metadata":  metadata,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/transactions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("wallet bridge: submit status %d", resp.StatusCode)
	}

	var body struct {
		TxHash string `json:"tx_hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.TxHash == "" {
		return "", fmt.Errorf("wallet bridge: empty transaction hash")
	}
	return body.TxHash, nil
}
