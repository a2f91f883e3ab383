package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	Repo       = "wordtap/wordtap"
	BinaryName = "wordtap"

	cacheFile     = "update_check.json"
	cacheTTL      = 24 * time.Hour
	checkInterval = 30 * time.Minute
)

type Release struct {
	Version     string
	AssetURL    string
	ChecksumURL string
}

type ghRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

func assetName() string {
	return fmt.Sprintf("%s_%s_%s", BinaryName, runtime.GOOS, runtime.GOARCH)
}

// CheckLatest queries GitHub for the newest release. Returns nil when
// already up to date or when running a dev build.
func CheckLatest(currentVersion string) (*Release, error) {
	if currentVersion == "dev" {
		return nil, nil
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", Repo)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("github api: %s", resp.Status)
	}

	var rel ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, err
	}

	r := &Release{Version: rel.TagName}
	want := assetName()
	for _, a := range rel.Assets {
		switch a.Name {
		case want:
			r.AssetURL = a.BrowserDownloadURL
		case "checksums.txt":
			r.ChecksumURL = a.BrowserDownloadURL
		}
	}
	if r.AssetURL == "" {
		return nil, fmt.Errorf("no asset %q in release %s", want, rel.TagName)
	}
	if !r.NewerThan(currentVersion) {
		return nil, nil
	}
	return r, nil
}

type cachedCheck struct {
	Version     string `json:"version"`
	AssetURL    string `json:"asset_url"`
	ChecksumURL string `json:"checksum_url"`
	CheckedAt   int64  `json:"checked_at"`
}

func readCache(cacheDir string) (*Release, bool) {
	data, err := os.ReadFile(filepath.Join(cacheDir, cacheFile))
	if err != nil {
		return nil, false
	}
	var c cachedCheck
	if json.Unmarshal(data, &c) != nil {
		return nil, false
	}
	if time.Since(time.Unix(c.CheckedAt, 0)) > cacheTTL {
		return nil, false
	}
	if c.Version == "" {
		return nil, true // cached "no update"
	}
	return &Release{Version: c.Version, AssetURL: c.AssetURL, ChecksumURL: c.ChecksumURL}, true
}

func writeCache(cacheDir string, rel *Release) {
	c := cachedCheck{CheckedAt: time.Now().Unix()}
	if rel != nil {
		c.Version = rel.Version
		c.AssetURL = rel.AssetURL
		c.ChecksumURL = rel.ChecksumURL
	}
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	_ = os.MkdirAll(cacheDir, 0755)
	_ = os.WriteFile(filepath.Join(cacheDir, cacheFile), data, 0644)
}

// CheckLatestCached is CheckLatest behind a day-long on-disk cache, so
// routine startups stay off the network.
func CheckLatestCached(currentVersion, cacheDir string) (*Release, error) {
	if currentVersion == "dev" {
		return nil, nil
	}
	if rel, ok := readCache(cacheDir); ok {
		return rel, nil
	}
	rel, err := CheckLatest(currentVersion)
	if err != nil {
		return nil, err
	}
	writeCache(cacheDir, rel)
	return rel, nil
}

// StartBackgroundCheck periodically looks for a newer release and calls
// notify when one appears. No-op for dev builds.
func StartBackgroundCheck(currentVersion, cacheDir string, notify func(Release)) {
	if currentVersion == "dev" {
		return
	}
	go func() {
		check := func() {
			rel, err := CheckLatestCached(currentVersion, cacheDir)
			if err == nil && rel != nil {
				notify(*rel)
			}
		}
		check()
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()
		for range ticker.C {
			check()
		}
	}()
}

type semver struct {
	major, minor, patch int
}

func parseSemver(v string) (semver, error) {
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return semver{}, fmt.Errorf("invalid semver: %q", v)
	}
	var out [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return semver{}, err
		}
		out[i] = n
	}
	return semver{out[0], out[1], out[2]}, nil
}

func (s semver) greaterThan(o semver) bool {
	if s.major != o.major {
		return s.major > o.major
	}
	if s.minor != o.minor {
		return s.minor > o.minor
	}
	return s.patch > o.patch
}

func (r Release) NewerThan(current string) bool {
	cur, err := parseSemver(current)
	if err != nil {
		return false
	}
	rel, err := parseSemver(r.Version)
	if err != nil {
		return false
	}
	return rel.greaterThan(cur)
}
