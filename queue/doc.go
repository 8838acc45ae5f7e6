/*
Package queue defines the tasks a mining run is split into, one per
partition, as well as an interface for a Queue to manage them.

It also provides an in-memory implementation of the Queue interface.
*/
package queue
