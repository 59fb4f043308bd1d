package returns

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Quoter supplies the latest market value of one unit of a security. It backs
// the live closing entry of the performance windows; everything else runs on
// recorded historical prices.
type Quoter interface {
	LatestQuote(isin string) (float64, error)
}

// LiveHoldingValue computes what an owner's holdings are worth right now:
// mark-to-market positions at their live quote, everything else at its last
// checkpoint value. It is meant to be plugged into Aggregator.Live.
func LiveHoldingValue(store SnapshotStore, catalog SecurityCatalog, quoter Quoter, owner string, today Date) func() (Money, error) {
	return func() (Money, error) {
		var total Money
		for _, v := range store.SecurityValuationsAsOf(owner, today) {
			sec := catalog.Security(v.Security)
			if sec == nil || !sec.IsMarkToMarket() {
				total = total.Add(v.Value)
				continue
			}
			quote, err := quoter.LatestQuote(sec.Ticker())
			if err != nil {
				return Money{}, fmt.Errorf("cannot value %q live: %w", sec.Ticker(), err)
			}
			total = total.Add(M(quote, sec.Currency()).Mul(v.Quantity))
		}
		return total, nil
	}
}

// TradegateQuoter reads the latest exchanged price from Tradegate, by ISIN.
// Quotes are in EUR.
type TradegateQuoter struct {
	Client *http.Client
}

func (q *TradegateQuoter) client() *http.Client {
	if q.Client != nil {
		return q.Client
	}
	return dailyCachedClient()
}

// LatestQuote returns the last transaction price for an ISIN. The last price
// moves slower than the bid, but the bid can be 0.
func (q *TradegateQuoter) LatestQuote(isin string) (float64, error) {
	addr := "https://www.tradegate.de/refresh.php?isin=" + isin

	var jobj map[string]any
	if err := jwget(q.client(), addr, &jobj); err != nil {
		return 0, fmt.Errorf("error retrieving %q: %w", isin, err)
	}
	jval := jobj["last"]
	if s, ok := jval.(string); ok && s == "./." {
		// Tradegate shows an empty last this way, use the bid instead.
		jval = jobj["bid"]
	}
	val, ok := jval.(float64)
	if !ok {
		// Sometimes this API returns the value as a string.
		sval, ok := jval.(string)
		if !ok {
			return 0, fmt.Errorf("cannot read value for %q: neither a float nor a string", isin)
		}
		sval = strings.ReplaceAll(sval, ",", ".")
		sval = strings.ReplaceAll(sval, " ", "")
		var err error
		val, err = strconv.ParseFloat(sval, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot read value for %q: invalid string %q: %w", isin, sval, err)
		}
	}
	if val == 0 {
		// Sometimes the bid is empty and returns 0.
		return 0, fmt.Errorf("empty bid for %q, no value to return", isin)
	}
	return val, nil
}

// diskCache implements a simple disk cache for HTTP responses. The cache key
// includes today's date, so entries expire daily.
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key := fmt.Sprintf("%s %s %s", Today(), req.Method, req.URL.String())
	key = fmt.Sprintf("%x", sha1.Sum([]byte(key)))

	if cached, err := c.get(key, req); err == nil {
		return cached, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v/%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Printf("cache write err (ignored): %v", err)
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(os.TempDir(), key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(os.TempDir(), key))
	if err != nil {
		return err
	}
	_, err = f.Write(content)
	f.Close()
	return err
}

// dailyCachedClient returns a client whose responses are cached on disk with
// a daily expiry.
func dailyCachedClient() *http.Client {
	client := new(http.Client)
	client.Transport = &diskCache{http.DefaultTransport}
	return client
}

// jwget performs an HTTP GET request and unmarshals the JSON response into
// the provided data structure.
func jwget(client *http.Client, addr string, data any) error {
	resp, err := client.Get(addr)
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	resp.Body.Close()
	return json.Unmarshal(buf.Bytes(), data)
}
