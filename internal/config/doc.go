// Package config loads and validates the execauth configuration file.
//
// The configuration lives at ~/.config/execauth/config.yaml by default and
// supplies the exec plugin definition (command, arguments, environment
// entries, expected apiVersion, interactivity) plus client-side settings
// like the execution timeout and log level:
//
//	exec:
//	  apiVersion: client.authentication.k8s.io/v1beta1
//	  command: /usr/local/bin/cloud-auth-plugin
//	  args: ["token", "--cluster", "prod"]
//	  env:
//	    - name: CLOUD_PROFILE
//	      value: default
//	timeout: 2m
//	logLevel: info
//
// A Watcher is provided for long-lived consumers that need to react to
// configuration edits without restarting.
package config
