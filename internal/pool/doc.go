// Package pool groups the instances of one service and hands out the next
// instance to proxy to.
package pool
