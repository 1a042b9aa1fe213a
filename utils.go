package mediasoup

import (
	"encoding/json"
	"math/rand"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/imdario/mergo"
)

type ptrTransformers struct{}

// overwrites pointer type
func (ptrTransformers) Transformer(tp reflect.Type) func(dst, src reflect.Value) error {
	if tp.Kind() == reflect.Ptr {
		return func(dst, src reflect.Value) error {
			if !src.IsNil() && dst.CanSet() {
				dst.Set(src)
			}
			return nil
		}
	}
	return nil
}

// override copies the non zero fields of src over dst.
func override(dst, src interface{}) error {
	return mergo.Merge(dst, src,
		mergo.WithOverride,
		mergo.WithTypeCheck,
		mergo.WithTransformers(ptrTransformers{}),
	)
}

func clone[T any](from T) (to T) {
	data, err := json.Marshal(from)
	if err != nil {
		panic(err)
	}
	if err = json.Unmarshal(data, &to); err != nil {
		panic(err)
	}
	return
}

func newId(id string) string {
	if len(id) > 0 {
		return id
	}
	return uuid.NewString()
}

func generateRandomNumber() uint32 {
	return uint32(rand.Int63n(900000000)) + 100000000
}

func ref[T any](v T) *T {
	return &v
}

// counter hands out sequential numbers, wrapping back to zero at max.
type counter struct {
	next uint32
	max  uint32
}

func (c *counter) take() uint32 {
	for {
		cur := atomic.LoadUint32(&c.next)
		next := cur + 1
		if next >= c.max {
			next = 0
		}
		if atomic.CompareAndSwapUint32(&c.next, cur, next) {
			return cur
		}
	}
}
