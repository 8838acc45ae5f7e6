package queue

import (
	"fmt"
	"strconv"

	"github.com/pbanos/pfpgrowth/itemset"
)

// Task represents the mining of one partition of a run:
// building the partition's prefix tree out of its projected
// transactions and mining the ranks the partition owns.
type Task struct {
	// The partition the task mines
	Partition int
	// The number of partitions of the run
	Partitions int
	// The resolved minimum support count
	MinCount int
	// The projected transactions of the partition
	Transactions []itemset.Transaction
}

// ID returns a string that identifies the
// task within its run, its partition number.
func (t *Task) ID() string {
	return strconv.Itoa(t.Partition)
}

func (t *Task) String() string {
	return fmt.Sprintf("{Task %d/%d (%d transactions)}", t.Partition, t.Partitions, len(t.Transactions))
}
