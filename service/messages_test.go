package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidar/domain/book"
)

func TestDispatch(t *testing.T) {
	d := dirs{wal: t.TempDir(), snaps: t.TempDir()}
	e := newEngine(t, d)

	_, err := e.Dispatch([]byte(`{"type":"limit","ts_ns":10,"id":101,"user":9001,"side":"ask","price":102,"qty":5}`))
	require.NoError(t, err)

	res, err := e.Dispatch([]byte(`{"type":"market","ts_ns":20,"id":301,"user":7000,"side":"bid","qty":3}`))
	require.NoError(t, err)
	assert.Equal(t, book.ExecResult{Filled: 3, Remaining: 0}, res)

	res, err = e.Dispatch([]byte(`{"type":"modify","ts_ns":30,"id":101,"price":103,"qty":2}`))
	require.NoError(t, err)
	assert.Equal(t, book.ExecResult{Filled: 0, Remaining: 2}, res)

	_, err = e.Dispatch([]byte(`{"type":"cancel","ts_ns":40,"id":101}`))
	require.NoError(t, err)
	assert.True(t, e.Book().SideEmpty(book.Ask))

	_, err = e.Dispatch([]byte(`{"type":"stop","id":1}`))
	assert.Error(t, err)
	_, err = e.Dispatch([]byte(`{"type":"limit","side":"north","qty":1}`))
	assert.Error(t, err)
	_, err = e.Dispatch([]byte(`not json`))
	assert.Error(t, err)
}
