// Package framework provides basic support code, such as the Logger interface, that is
// shared by the harness core and its mock backends but contains no domain-specific logic.
package framework
