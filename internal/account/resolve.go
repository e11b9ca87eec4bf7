package account

import (
	"fmt"
	"net/url"
	"os"

	"github.com/fystack/depined-agent/pkg/common/enum"
	"github.com/fystack/depined-agent/pkg/common/stringutils"
)

// Resolve turns tokens and proxies into bindings according to mode.
func Resolve(tokens []string, proxies []*url.URL, mode enum.ProxyMode) ([]Binding, error) {
	tokens = stringutils.Clean(tokens)
	if len(tokens) == 0 {
		return nil, ErrNoAccounts
	}
	if mode == "" {
		mode = enum.ProxyModeRoundRobin
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("unknown proxy mode %q", mode)
	}

	bindings := make([]Binding, 0, len(tokens))
	for i, token := range tokens {
		b := Binding{Account: Account{Index: i, Token: token}}
		if len(proxies) > 0 {
			switch mode {
			case enum.ProxyModeRoundRobin:
				b.Proxies = []*url.URL{proxies[i%len(proxies)]}
			case enum.ProxyModeAll:
				b.Proxies = append([]*url.URL(nil), proxies...)
			}
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// ReadListFile reads one entry per line from path.
func ReadListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return stringutils.ReadLines(f)
}
