package offline

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lukechampine.com/blake3"
)

var (
	// ErrInstallFailed wraps the first manifest fetch or persist failure of an install.
	ErrInstallFailed = errors.New("offline cache install failed")
	// ErrStoreNotFound is returned when a named store does not exist.
	ErrStoreNotFound = errors.New("store not found")
	// ErrInvalidManifest reports a manifest entry that cannot be used as a key.
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Response is a stored response payload.
type Response struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
	Digest   string      `json:"digest,omitempty"`
}

// Clone returns a deep copy so callers can't mutate stored state.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := *r
	out.Header = r.Header.Clone()
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return &out
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Entry pairs a request key with the response stored under it.
type Entry struct {
	Key      string
	Response *Response
}

// Digest returns the BLAKE3 hex digest of body.
func Digest(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// StoreName builds the version-stamped store name, e.g. zhguchie-tours-v1.
func StoreName(prefix string, version int) string {
	return fmt.Sprintf("%s-v%d", prefix, version)
}

// RequestKey returns the store key for r: the root-relative URL of a GET
// request. ok is false for requests that are never matched.
func RequestKey(r *http.Request) (key string, ok bool) {
	if r == nil || r.URL == nil || r.Method != http.MethodGet {
		return "", false
	}
	return PathKey(r.URL.Path, r.URL.RawQuery), true
}

// PathKey joins a path and raw query into a store key.
func PathKey(path, rawQuery string) string {
	if path == "" {
		path = "/"
	}
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// Manifest is the ordered list of root-relative paths installed into the store.
type Manifest []string

// DefaultManifest is the asset list of the booking front-end.
func DefaultManifest() Manifest {
	return Manifest{
		"/",
		"/index.html",
		"/css/style.css",
		"/css/responsive.css",
		"/js/app.js",
		"/images/logo.png",
		"/images/icon-hot.png",
		"/images/icon-search.png",
		"/images/icon-special.png",
		"/images/icon-profile.png",
	}
}

// Validate rejects empty manifests, entries that are not root-relative and duplicates.
func (m Manifest) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidManifest)
	}
	seen := make(map[string]struct{}, len(m))
	for _, p := range m {
		if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
			return fmt.Errorf("%w: %q is not root-relative", ErrInvalidManifest, p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate entry %q", ErrInvalidManifest, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Phase is the lifecycle state of the offline cache.
type Phase string

const (
	PhaseParsed     Phase = "parsed"
	PhaseInstalling Phase = "installing"
	PhaseActivated  Phase = "activated"
	// PhaseRedundant means install failed and requests bypass the store.
	PhaseRedundant Phase = "redundant"
)

// Source tells where an intercepted response came from.
type Source string

const (
	SourceStore   Source = "store"
	SourceNetwork Source = "network"
)

// InstallReport summarises a completed install.
type InstallReport struct {
	ID           string        `json:"id"`
	Store        string        `json:"store"`
	Entries      int           `json:"entries"`
	Unchanged    int           `json:"unchanged"`
	RemovedStore []string      `json:"removed_stores,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Status describes the offline cache for inspection endpoints.
type Status struct {
	Store    string    `json:"store"`
	Phase    Phase     `json:"phase"`
	Manifest Manifest  `json:"manifest"`
	EntryTTL string    `json:"entry_ttl,omitempty"`
	LastErr  string    `json:"last_error,omitempty"`
	Updated  time.Time `json:"updated_at"`
}
