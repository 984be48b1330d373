package config

import "fmt"

const requiredEnvNotSetFmt = "required environment variable %s is not set"

func requiredEnvNotSet(key string) string {
	return fmt.Sprintf(requiredEnvNotSetFmt, key)
}
