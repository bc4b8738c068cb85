package domain

// ExternalIdentity is the result of a completed federated login, as vouched
// for by the identity provider.
type ExternalIdentity interface {
	// VerifiedEmail returns the email only when the provider verified it.
	VerifiedEmail() (string, bool)
	// DisplayName returns the provider supplied name, possibly empty.
	DisplayName() string
}
