package wallet

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	// ErrWalletNotFound indicates that no wallet with the given ID is registered.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrWalletNotConfigured indicates that the wallet still carries placeholder keys.
	ErrWalletNotConfigured = errors.New("wallet not configured")
	// ErrInvalidWalletID indicates a malformed wallet ID.
	ErrInvalidWalletID = errors.New("invalid wallet id")
)

var (
	walletIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	base58Pattern   = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// placeholders are template values shipped in the sample wallet file.
var placeholders = map[string]bool{
	"请替换为实际的公钥地址":          true,
	"请替换为实际的私钥（base58格式）":  true,
	"YOUR_PUBLIC_KEY":      true,
	"YOUR_PRIVATE_KEY":     true,
	"REPLACE_WITH_PUBKEY":  true,
	"REPLACE_WITH_PRIVKEY": true,
}

// Wallet is one monitored wallet. The private key is never serialized.
type Wallet struct {
	ID          string `yaml:"-" json:"walletId"`
	Name        string `yaml:"name" json:"name"`
	PublicKey   string `yaml:"publicKey" json:"publicKey"`
	PrivateKey  string `yaml:"privateKey" json:"-"`
	Description string `yaml:"description" json:"description,omitempty"`
}

type file struct {
	Wallets map[string]Wallet `yaml:"wallets"`
}

// Registry is an immutable set of wallets loaded from a config file.
type Registry struct {
	wallets map[string]Wallet
	ids     []string
}

// Load reads a wallet registry from a JSON or YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wallet config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a wallet registry. JSON input is accepted as YAML.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing wallet config: %w", err)
	}
	wallets := make([]Wallet, 0, len(f.Wallets))
	for id, w := range f.Wallets {
		if !walletIDPattern.MatchString(id) {
			return nil, fmt.Errorf("wallet %q: %w", id, ErrInvalidWalletID)
		}
		w.ID = id
		wallets = append(wallets, w)
	}
	return NewRegistry(wallets...), nil
}

// NewRegistry builds a registry from wallets keyed by their ID.
func NewRegistry(wallets ...Wallet) *Registry {
	r := &Registry{wallets: make(map[string]Wallet, len(wallets))}
	for _, w := range wallets {
		r.wallets[w.ID] = w
	}
	for id := range r.wallets {
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r
}

// Get returns the wallet with the given ID.
func (r *Registry) Get(id string) (Wallet, bool) {
	w, ok := r.wallets[id]
	return w, ok
}

// IDs returns all wallet IDs in sorted order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// All returns every wallet sorted by ID.
func (r *Registry) All() []Wallet {
	out := make([]Wallet, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.wallets[id])
	}
	return out
}

// IsConfigured reports whether the wallet exists and carries real keys.
func (r *Registry) IsConfigured(id string) bool {
	w, ok := r.wallets[id]
	return ok && w.HasKeys()
}

// Configured returns the IDs of wallets eligible for monitoring.
func (r *Registry) Configured() []string {
	var out []string
	for _, id := range r.ids {
		if r.wallets[id].HasKeys() {
			out = append(out, id)
		}
	}
	return out
}

// Validate maps a wallet ID to ErrInvalidWalletID, ErrWalletNotFound or ErrWalletNotConfigured.
func (r *Registry) Validate(id string) error {
	if !walletIDPattern.MatchString(id) {
		return fmt.Errorf("wallet %q: %w", id, ErrInvalidWalletID)
	}
	w, ok := r.wallets[id]
	if !ok {
		return fmt.Errorf("wallet %s: %w", id, ErrWalletNotFound)
	}
	if !w.HasKeys() {
		return fmt.Errorf("wallet %s: %w", id, ErrWalletNotConfigured)
	}
	return nil
}

// HasKeys reports whether both keys are set to non-placeholder values
// and the public key looks like a base58 Solana address.
func (w Wallet) HasKeys() bool {
	if w.PublicKey == "" || w.PrivateKey == "" {
		return false
	}
	if placeholders[w.PublicKey] || placeholders[w.PrivateKey] {
		return false
	}
	return ValidAddress(w.PublicKey)
}

// ValidAddress reports whether s is a plausible base58 Solana address.
func ValidAddress(s string) bool {
	return len(s) >= 32 && len(s) <= 44 && base58Pattern.MatchString(s)
}
