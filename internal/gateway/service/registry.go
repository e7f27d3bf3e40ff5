package service

import (
	"fmt"
	"strings"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
)

// Registry is the immutable set of configured providers. It is built
// once at startup and injected into every service that needs provider
// lookup; there is no ambient provider state.
type Registry struct {
	providers map[string]domain.ProviderConfig
	order     []string
}

// NewRegistry validates the provider configs, applies defaults, and
// resolves every configured hook name against the runner. Unknown hook
// names and duplicate or malformed provider names are startup errors.
func NewRegistry(configs []domain.ProviderConfig, hooks *HookRunner) (*Registry, error) {
	r := &Registry{providers: make(map[string]domain.ProviderConfig, len(configs))}

	for _, p := range configs {
		if p.Name == "" {
			return nil, fmt.Errorf("provider with empty name")
		}
		// State tokens are "<provider>_<uuid>", so the name must not
		// contain the separator.
		if strings.Contains(p.Name, "_") {
			return nil, fmt.Errorf("provider %q: name must not contain underscores", p.Name)
		}
		if _, dup := r.providers[p.Name]; dup {
			return nil, fmt.Errorf("provider %q: configured twice", p.Name)
		}
		if p.ClientID == "" {
			return nil, fmt.Errorf("provider %q: client_id is required", p.Name)
		}
		if p.OAuthHost == "" {
			return nil, fmt.Errorf("provider %q: oauth_host is required", p.Name)
		}
		if p.TokenURL == "" {
			return nil, fmt.Errorf("provider %q: token_url is required", p.Name)
		}

		switch p.Version {
		case "":
			p.Version = domain.ProtocolV1
		case domain.ProtocolV1, domain.ProtocolV2:
		default:
			return nil, fmt.Errorf("provider %q: unknown version %q", p.Name, p.Version)
		}
		if p.SessionKey == "" {
			p.SessionKey = domain.DefaultSessionKey
		}
		if p.Identifier == "" {
			p.Identifier = p.Name
		}

		if hooks != nil {
			for _, names := range [][]string{
				p.Hooks.PreLogin, p.Hooks.LoginSuccess,
				p.Hooks.PreLogout, p.Hooks.LogoutSuccess,
			} {
				if _, err := hooks.Resolve(names); err != nil {
					return nil, fmt.Errorf("provider %q: %w", p.Name, err)
				}
			}
		}

		r.providers[p.Name] = p
		r.order = append(r.order, p.Name)
	}

	return r, nil
}

// Lookup returns the provider by name or ErrProviderNotFound.
func (r *Registry) Lookup(name string) (domain.ProviderConfig, error) {
	p, ok := r.providers[name]
	if !ok {
		return domain.ProviderConfig{}, ErrProviderNotFound
	}
	return p, nil
}

// FromState resolves the provider encoded in a state token's prefix.
func (r *Registry) FromState(state string) (domain.ProviderConfig, error) {
	name, _, ok := strings.Cut(state, "_")
	if !ok {
		return domain.ProviderConfig{}, ErrProviderNotFound
	}
	return r.Lookup(name)
}

// All returns the providers in configuration order.
func (r *Registry) All() []domain.ProviderConfig {
	out := make([]domain.ProviderConfig, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}
