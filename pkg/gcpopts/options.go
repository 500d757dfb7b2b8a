// Package gcpopts turns GCP credential settings into client options shared
// by the Pub/Sub and BigQuery clients.
package gcpopts

import (
	"strings"

	"google.golang.org/api/option"

	"github.com/plasa/shopper-settlement/pkg/config"
)

// FromConfig prefers inline JSON credentials over a credentials file. With
// neither set the clients fall back to application default credentials.
func FromConfig(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}
