package web

import (
	"strings"

	"golang.org/x/net/html"
)

// ForEachNode applies a function to the given node and each of its
// descendants.
func ForEachNode(node *html.Node, fn func(n *html.Node) error) error {
	var iter func(n *html.Node) error
	iter = func(n *html.Node) error {
		err := fn(n)
		if err != nil {
			return err
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			err := iter(c)
			if err != nil {
				return err
			}
		}

		return nil
	}

	return iter(node)
}

// NodesWithDataVal returns a slice of all descendant element nodes whose
// "data" field has the given value.
func NodesWithDataVal(node *html.Node, dataName string) []*html.Node {
	var nodes []*html.Node

	ForEachNode(node, func(n *html.Node) error {
		if n.Type == html.ElementNode && n.Data == dataName {
			nodes = append(nodes, n)
		}
		return nil
	})

	return nodes
}

// NodeAttr returns the value of the first attribute of n called key.
func NodeAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// EmbeddedImageURLs returns the src of every img element in the given html
// document whose value starts with prefix. An empty prefix matches all.
func EmbeddedImageURLs(doc *html.Node, prefix string) []string {
	var urls []string
	for _, n := range NodesWithDataVal(doc, "img") {
		src, ok := NodeAttr(n, "src")
		if ok && strings.HasPrefix(src, prefix) {
			urls = append(urls, src)
		}
	}
	return urls
}
