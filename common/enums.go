// Package common keeps enums shared by resource model, pipeline and
// configuration.
package common

// Kind of the resource kept in registry.
// ENUM(image, stylesheet, chapter, navigation-entry)
type ResourceType int

// Treatment of inline style attributes in chapter markup.
// ENUM(none, all, list)
type InlineStyleMode int
