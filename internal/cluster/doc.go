// Package cluster groups skills by co-occurrence and surfaces emerging
// skills.
//
// Clusters are the connected components of an undirected graph whose nodes
// are well-supported skills and whose edges count records mentioning both
// endpoints. Nodes, edges and traversal order are all sorted canonically,
// so the output never depends on record order. Emerging detection compares
// each skill's recent period window against the window before it.
package cluster
