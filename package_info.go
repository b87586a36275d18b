package joanna

import (
	"encoding/json"
	"fmt"
	"os"
)

// PackageInfo is the part of a package.json that labels generated output.
type PackageInfo struct {
	Repository string
	Version    string
}

// LoadPackageInfo reads repository and version from a package.json. The
// repository field may be a URL string or an object with a url key.
func LoadPackageInfo(path string) (*PackageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("joanna: read package: %w", err)
	}
	var raw struct {
		Repository json.RawMessage `json:"repository"`
		Version    string          `json:"version"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("joanna: parse %s: %w", path, err)
	}

	info := &PackageInfo{Version: raw.Version}
	if len(raw.Repository) > 0 {
		var url string
		if err := json.Unmarshal(raw.Repository, &url); err == nil {
			info.Repository = url
		} else {
			var repo struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal(raw.Repository, &repo); err != nil {
				return nil, fmt.Errorf("joanna: parse %s: repository: %w", path, err)
			}
			info.Repository = repo.URL
		}
	}
	return info, nil
}

// SetPackage labels r with the repository and version of info.
func (r *Result) SetPackage(info *PackageInfo) {
	r.Repository = info.Repository
	r.Version = info.Version
}
