package instance

import "os"

// GetID returns an identifier for the running process. Platform provided
// names win over the hostname.
func GetID() string {
	for _, key := range []string{"ORDERFLOW_INSTANCE_ID", "WORKER_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
