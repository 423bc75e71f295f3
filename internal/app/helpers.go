package app

import (
	"github.com/driftgate/gateway/internal/domain"
)

// domainProvider converts the loosely-typed provider string carried on an
// events.Event into the closed domain.Provider enum. A string that matches
// none is returned unchanged as a domain.Provider, and
// metrics.SetProviderHealth then records the gauge under that raw label.
func domainProvider(raw string) domain.Provider {
	for _, p := range domain.AllProviders {
		if string(p) == raw {
			return p
		}
	}
	return domain.Provider(raw)
}

// resolveBaseURLDefaults maps the config file's string-keyed provider base
// URL overrides onto the closed domain.Provider enum the router expects,
// silently dropping keys that name no known provider.
func resolveBaseURLDefaults(raw map[string]string) map[domain.Provider]string {
	out := make(map[domain.Provider]string, len(raw))
	for k, v := range raw {
		for _, p := range domain.AllProviders {
			if string(p) == k {
				out[p] = v
				break
			}
		}
	}
	return out
}
