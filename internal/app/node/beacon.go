package node

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/onlydustxyz/kiln-indexer/internal/app"
	"github.com/onlydustxyz/kiln-indexer/internal/core"
)

var _ app.NodeClient[*core.Slot] = (*BeaconClient)(nil)

type beaconHeaderResponse struct {
	ExecutionOptimistic bool `json:"execution_optimistic"`
	Data                struct {
		Root   string `json:"root"`
		Header struct {
			Message struct {
				Slot string `json:"slot"`
			} `json:"message"`
		} `json:"header"`
	} `json:"data"`
}

type beaconSpecResponse struct {
	Data struct {
		ConfigName string `json:"CONFIG_NAME"`
	} `json:"data"`
}

type beaconBalancesResponse struct {
	Data []struct {
		Index string `json:"index"`
	} `json:"data"`
}

// BeaconClient reads slots from a consensus layer node over the
// beacon REST API.
type BeaconClient struct {
	baseURL string
	client  *http.Client

	mx   sync.Mutex
	spec string
}

func NewBeaconClient(url string) *BeaconClient {
	return &BeaconClient{
		baseURL: strings.TrimSuffix(url, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *BeaconClient) get(ctx context.Context, path string, ret any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrap(core.ErrNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(ret)
}

// specName returns the chain configuration name, fetched once and cached.
func (c *BeaconClient) specName(ctx context.Context) (string, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.spec != "" {
		return c.spec, nil
	}

	var ret beaconSpecResponse
	if err := c.get(ctx, "/eth/v1/config/spec", &ret); err != nil {
		return "", errors.Wrap(err, "get chain spec")
	}

	c.spec = ret.Data.ConfigName
	return c.spec, nil
}

// validatorsCount is best effort, the slot column is nullable.
func (c *BeaconClient) validatorsCount(ctx context.Context, height uint64) *uint64 {
	var ret beaconBalancesResponse

	path := "/eth/v1/beacon/states/" + strconv.FormatUint(height, 10) + "/validator_balances"
	if err := c.get(ctx, path, &ret); err != nil {
		return nil
	}

	count := uint64(len(ret.Data))
	return &count
}

func (c *BeaconClient) HeadHeight(ctx context.Context) (uint64, error) {
	var ret beaconHeaderResponse

	if err := c.get(ctx, "/eth/v1/beacon/headers/head", &ret); err != nil {
		return 0, errors.Wrap(err, "get head header")
	}

	height, err := strconv.ParseUint(ret.Data.Header.Message.Slot, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed head slot %q", ret.Data.Header.Message.Slot)
	}

	return height, nil
}

func (c *BeaconClient) EntryAt(ctx context.Context, height uint64) (*core.Slot, error) {
	spec, err := c.specName(ctx)
	if err != nil {
		return nil, err
	}

	var ret beaconHeaderResponse

	err = c.get(ctx, "/eth/v1/beacon/headers/"+strconv.FormatUint(height, 10), &ret)
	if errors.Is(err, core.ErrNotFound) {
		return nil, errors.Wrapf(core.ErrNothingAtHeight, "height %d", height)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get header at %d", height)
	}
	if ret.ExecutionOptimistic {
		return nil, errors.Wrapf(core.ErrPendingBlock, "height %d", height)
	}

	root, err := hexutil.Decode(ret.Data.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed block root %q", ret.Data.Root)
	}

	return &core.Slot{
		Height:          height,
		Spec:            spec,
		BlockRoot:       root,
		ValidatorsCount: c.validatorsCount(ctx, height),
		ScannedAt:       time.Now().UTC(),
	}, nil
}
