// Package frame implements the Call-Frame Stack: the central data structure
// of the kernel. Each Frame owns a set of nodes, holds visible references
// with extension tracking, and the Stack enforces the visibility and
// ownership-transfer rules across invocation boundaries.
package frame
