// Package auth adapts exec plugin credentials to oauth2-aware HTTP stacks.
package auth
