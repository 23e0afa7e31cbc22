package types

const (
	APIEndpoint              = "api.endpoint"
	APIToken                 = "api.token"
	APITimeout               = "api.timeout"
	APIRetries               = "api.retries"
	Region                   = "region"
	ImagesAllowedPrefixes    = "images.allowed_prefixes"
	CopyWarnSize             = "copy.warn_size"
	DescriptionStripPrefixes = "description.strip_prefixes"
)

// AllKeys is used to register defaults, which also makes every key visible to
// environment variable lookup.
var AllKeys = []string{
	APIEndpoint,
	APIToken,
	APITimeout,
	APIRetries,
	Region,
	ImagesAllowedPrefixes,
	CopyWarnSize,
	DescriptionStripPrefixes,
}
