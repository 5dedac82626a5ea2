// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

// EnvVars is a map of environment variable values by name.
type EnvVars map[string]string

// SetEnv sets the given [EnvVars] in the environment.
//
// Variables are set in lexicographic order of their names. It stops at the
// first failure.
func SetEnv(envVars EnvVars) error {
	for key, value := range sortedMap(envVars) {
		err := setenv(key, value)
		if err != nil {
			return err
		}
	}

	return nil
}
