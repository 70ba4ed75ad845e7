// Package ui holds the colored terminal output used by the ninlil commands.
package ui
