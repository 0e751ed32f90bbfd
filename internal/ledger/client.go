package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"backend-vintrek/internal/shared/geo"

	"github.com/sirupsen/logrus"
)

// MetadataLabel is the Cardano transaction-metadata label under which
// all completion proofs and reward records are filed.
const MetadataLabel uint = 674

const defaultMaxCheckpoints = 20

// Checkpoint is one downsampled GPS point inside a proof payload.
type Checkpoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp string  `json:"timestamp"`
}

// CompletionProof is the compact on-chain record of one finished trail.
// The full coordinate sequence stays in the local cache; only bounded
// checkpoints go on chain.
type CompletionProof struct {
	Action              string       `json:"action"`
	TrailID             string       `json:"trail_id"`
	TrailName           string       `json:"trail_name"`
	HikerAddress        string       `json:"hiker_address"`
	DistanceMeters      float64      `json:"distance_meters"`
	DurationSeconds     float64      `json:"duration_seconds"`
	Difficulty          string       `json:"difficulty"`
	GPSCheckpoints      []Checkpoint `json:"gps_checkpoints"`
	TrekTokensEarned    int          `json:"trek_tokens_earned"`
	NFTMinted           bool         `json:"nft_minted"`
	CompletionTimestamp string       `json:"completion_timestamp"`
}

// RewardRecord is the on-chain note of a TREK token grant.
type RewardRecord struct {
	Action       string `json:"action"`
	HikerAddress string `json:"hiker_address"`
	TrailID      string `json:"trail_id"`
	RewardType   string `json:"reward_type"`
	TrekAmount   int    `json:"trek_amount"`
	Timestamp    string `json:"timestamp"`
}

const (
	actionStoreCompletion = "store_completion"
	actionRewardTrek      = "reward_trek"
)

// ErrNoWallet means the deployment has no wallet bridge configured.
// Proof writes fail cleanly; the local-first flow carries on without
// them.
var ErrNoWallet = errors.New("ledger: no wallet configured")

// Client writes proofs through a Wallet and reads history back from a
// Blockfrost-style explorer API.
type Client struct {
	baseURL        string
	projectID      string
	scriptAddress  string
	wallet         Wallet
	http           *http.Client
	maxCheckpoints int
	log            *logrus.Entry
}

type ClientOptions struct {
	BaseURL        string
	ProjectID      string
	ScriptAddress  string
	Wallet         Wallet
	HTTPClient     *http.Client
	MaxCheckpoints int
	Logger         *logrus.Entry
}

func NewClient(opts ClientOptions) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxCheckpoints <= 0 {
		opts.MaxCheckpoints = defaultMaxCheckpoints
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.New())
	}
	return &Client{
		baseURL:        opts.BaseURL,
		projectID:      opts.ProjectID,
		scriptAddress:  opts.ScriptAddress,
		wallet:         opts.Wallet,
		http:           opts.HTTPClient,
		maxCheckpoints: opts.MaxCheckpoints,
		log:            opts.Logger,
	}
}

// StoreCompletion submits the proof transaction and returns its hash.
func (c *Client) StoreCompletion(ctx context.Context, trailID, trailName, hikerAddress string,
	distanceM, durationSec float64, difficulty string, path []geo.Coordinate, tokens int, nftMinted bool) (string, error) {

	proof := CompletionProof{
		Action:              actionStoreCompletion,
		TrailID:             trailID,
		TrailName:           trailName,
		HikerAddress:        hikerAddress,
		DistanceMeters:      distanceM,
		DurationSeconds:     durationSec,
		Difficulty:          difficulty,
		GPSCheckpoints:      SampleCheckpoints(path, c.maxCheckpoints),
		TrekTokensEarned:    tokens,
		NFTMinted:           nftMinted,
		CompletionTimestamp: time.Now().UTC().Format(time.RFC3339),
	}

	txHash, err := c.submit(ctx, proof)
	if err != nil {
		return "", fmt.Errorf("store completion: %w", err)
	}
	c.log.WithFields(logrus.Fields{"trail_id": trailID, "tx_hash": txHash}).Info("completion proof submitted")
	return txHash, nil
}

// RecordReward notes a TREK grant on chain. Failures are recoverable;
// the grant amount is already in the local record.
func (c *Client) RecordReward(ctx context.Context, hikerAddress, trailID, rewardType string, amount int) (string, error) {
	record := RewardRecord{
		Action:       actionRewardTrek,
		HikerAddress: hikerAddress,
		TrailID:      trailID,
		RewardType:   rewardType,
		TrekAmount:   amount,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	txHash, err := c.submit(ctx, record)
	if err != nil {
		return "", fmt.Errorf("record reward: %w", err)
	}
	return txHash, nil
}

func (c *Client) submit(ctx context.Context, metadata any) (string, error) {
	if c.wallet == nil {
		return "", ErrNoWallet
	}
	return c.wallet.SubmitMetadata(ctx, MetadataLabel, c.scriptAddress, metadata)
}

// HistoryEntry is one proof read back from the explorer.
type HistoryEntry struct {
	TxHash string
	Proof  CompletionProof
}

// CompletionHistory pulls every completion proof the wallet has filed
// under the metadata label.
func (c *Client) CompletionHistory(ctx context.Context, hikerAddress string) ([]HistoryEntry, error) {
	var raw []struct {
		TxHash       string          `json:"tx_hash"`
		JSONMetadata json.RawMessage `json:"json_metadata"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/metadata/txs/labels/%d", MetadataLabel), &raw); err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	for _, item := range raw {
		var proof CompletionProof
		if err := json.Unmarshal(item.JSONMetadata, &proof); err != nil {
			continue
		}
		if proof.Action != actionStoreCompletion || proof.HikerAddress != hikerAddress {
			continue
		}
		entries = append(entries, HistoryEntry{TxHash: item.TxHash, Proof: proof})
	}
	return entries, nil
}

// VerifyTransaction reports whether the transaction landed in a block.
func (c *Client) VerifyTransaction(ctx context.Context, txHash string) (bool, error) {
	var tx struct {
		Block string `json:"block"`
	}
	if err := c.getJSON(ctx, "/txs/"+txHash, &tx); err != nil {
		return false, err
	}
	return tx.Block != "", nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("project_id", c.projectID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("explorer: %s status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SampleCheckpoints downsamples a path to at most max points, always
// keeping the first and last.
func SampleCheckpoints(path []geo.Coordinate, max int) []Checkpoint {
	if max <= 0 || len(path) == 0 {
		return []Checkpoint{}
	}

	indexes := make([]int, 0, max)
	switch {
	case len(path) <= max:
		for i := range path {
			indexes = append(indexes, i)
		}
	case max == 1:
		indexes = append(indexes, 0)
	default:
		step := float64(len(path)-1) / float64(max-1)
		for i := 0; i < max; i++ {
			indexes = append(indexes, int(float64(i)*step+0.5))
		}
		indexes[max-1] = len(path) - 1
	}

	checkpoints := make([]Checkpoint, 0, len(indexes))
	for _, idx := range indexes {
		c := path[idx]
		checkpoints = append(checkpoints, Checkpoint{
			Lat:       c.Lat,
			Lng:       c.Lng,
			Timestamp: c.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return checkpoints
}
