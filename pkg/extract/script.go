// Package extract defines the content script injected into the checkout page
// and the host-side equivalent of its extraction step.
//
// The script is a transport, not a decoder: it watches page readiness and,
// on each completed load, posts the text of a fixed DOM container on a named
// message channel. It never parses the payload itself.
package extract

import (
	"fmt"
	"strings"
)

// ScriptVersion identifies the injected script revision. Bump it whenever
// the script text or its contract changes, so rendering hosts can refuse
// scripts they do not understand.
const ScriptVersion = 1

// DefaultChannelSubject is the message-channel subject the script posts on.
const DefaultChannelSubject = "checkout.result"

// DefaultContainerSelector locates the DOM node whose text carries the order
// view data on the provider's checkout page.
const DefaultContainerSelector = "#order-data"

// BridgeFunction is the host bridge installed into the page by rendering
// adapters. It takes (subject, payload) and forwards the payload to the host.
const BridgeFunction = "__shopframe_post__"

// Config selects the container and channel the script binds to. Zero values
// select the defaults.
type Config struct {
	ChannelSubject    string
	ContainerSelector string
}

func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.ChannelSubject) == "" {
		c.ChannelSubject = DefaultChannelSubject
	}
	if strings.TrimSpace(c.ContainerSelector) == "" {
		c.ContainerSelector = DefaultContainerSelector
	}
	return c
}

// Script renders the content script. It is injected at document start into
// the top-level frame only.
//
// Contract: fires once per completed load; in-page navigations inside one
// session complete further loads and fire again. Each firing posts the
// container's text verbatim. Loads whose document has no container (the
// synthetic widget page before an order exists) post nothing.
func Script(cfg Config) string {
	cfg = cfg.WithDefaults()
	return fmt.Sprintf(scriptTemplate, cfg.ContainerSelector, BridgeFunction, cfg.ChannelSubject)
}

const scriptTemplate = `(function () {
    'use strict';
    document.addEventListener('readystatechange', function () {
        if (document.readyState !== 'complete') {
            return;
        }
        var node = document.querySelector('%s');
        if (!node) {
            return;
        }
        window.%s('%s', node.innerText);
    });
}());`
