/*
Package json provides a JSON encoding for queue tasks, used to
store them on backends such as redis.
*/
package json

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/queue"
)

/*
TaskEncodeDecoder is an interface for objects
that allow encoding tasks as slices of bytes and decoding
them back to tasks.
*/
type TaskEncodeDecoder interface {

	//Encode receives a *queue.Task
	// and returns a slice of bytes with the task encoded or an
	//error if the encoding could not be performed.
	Encode(context.Context, *queue.Task) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns the *queue.Task it encodes
	//or an error if the decoding could not be performed.
	Decode(context.Context, []byte) (*queue.Task, error)
}

type jsonEncodeDecoder struct{}

type jsonTask struct {
	Partition    int                   `json:"p"`
	Partitions   int                   `json:"n"`
	MinCount     int                   `json:"m"`
	Transactions []itemset.Transaction `json:"t"`
}

// New returns a TaskEncodeDecoder that encodes tasks as JSON objects.
func New() TaskEncodeDecoder {
	return jsonEncodeDecoder{}
}

func (jsonEncodeDecoder) Encode(ctx context.Context, t *queue.Task) ([]byte, error) {
	data, err := json.Marshal(&jsonTask{
		Partition:    t.Partition,
		Partitions:   t.Partitions,
		MinCount:     t.MinCount,
		Transactions: t.Transactions,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding task %s as json: %v", t.ID(), err)
	}
	return data, nil
}

func (jsonEncodeDecoder) Decode(ctx context.Context, data []byte) (*queue.Task, error) {
	jt := &jsonTask{}
	err := json.Unmarshal(data, jt)
	if err != nil {
		return nil, fmt.Errorf("decoding task from json: %v", err)
	}
	if jt.Partitions < 1 || jt.Partition < 0 || jt.Partition >= jt.Partitions {
		return nil, fmt.Errorf("decoding json task: partition %d out of %d partitions", jt.Partition, jt.Partitions)
	}
	return &queue.Task{
		Partition:    jt.Partition,
		Partitions:   jt.Partitions,
		MinCount:     jt.MinCount,
		Transactions: jt.Transactions,
	}, nil
}
