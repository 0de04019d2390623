package ledger

// Version is reported in the User-Agent header.
const Version = "0.4.0"

// DefaultUserAgent identifies this client to the ledger API.
const DefaultUserAgent = "ledger-sdk-go/" + Version
