package constvars

const (
	RegexHostnameLabel = `^[a-z0-9-]+$`
)

const (
	MaxHostnameLength = 253
)
