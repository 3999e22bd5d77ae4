// Package tooltip builds and patches the hover tooltip markup. Builders
// produce inert node trees with loading placeholders; the patcher fills
// them in as asynchronous lookup results arrive. No event wiring happens
// here, the consumer attaches behavior to the rendered fragment.
package tooltip
