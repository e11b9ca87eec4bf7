package account

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/fystack/depined-agent/pkg/common/stringutils"
)

var ErrNoAccounts = errors.New("no accounts configured")

// Account is one bearer token. It never changes after startup.
type Account struct {
	Index int
	Token string
}

func (a Account) Masked() string {
	return stringutils.MaskSecret(a.Token)
}

// Label is the 1-based name used in logs.
func (a Account) Label() string {
	return "#" + strconv.Itoa(a.Index+1)
}

// DisplayProfile is the advisory account snapshot shown in logs. It never drives
// control flow.
type DisplayProfile struct {
	Email         string
	Verified      string
	Tier          string
	PointsBalance string
}

// Binding pairs an account with the proxies it runs through. Every proxy yields one
// worker; an empty list yields a single direct worker.
type Binding struct {
	Account Account
	Proxies []*url.URL
}

// Endpoints returns one entry per worker, nil meaning a direct connection.
func (b Binding) Endpoints() []*url.URL {
	if len(b.Proxies) == 0 {
		return []*url.URL{nil}
	}
	return b.Proxies
}
