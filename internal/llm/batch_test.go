package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/lifesort/internal/model"
)

func TestClassifyBatch_SplitsItems(t *testing.T) {
	client := &mockClient{replies: []mockReply{{text: `{"items":[
		{"route_type":"finance","confidence":0.9,"summary":"午饭","data":{"amount":30,"category":"餐饮"}},
		{"route_type":"todo","confidence":0.8,"summary":"交房租","data":{"title":"交房租"}},
		{"summary":"dropped"}
	]}`}}}
	c, _ := newTestClassifier(client)

	results := c.ClassifyBatch(context.Background(), "午饭花了30，明天记得交房租")

	require.Len(t, results, 2)
	assert.Equal(t, model.RouteFinance, results[0].Route)
	assert.Equal(t, model.RouteTodo, results[1].Route)

	todo, ok := results[1].Todo()
	require.True(t, ok)
	assert.Equal(t, model.TodoCategoryLife, todo.Category)
	assert.Equal(t, 2, todo.Priority)

	assert.Contains(t, client.request(0).Instruction, `"items"`)
}

func TestClassifyBatch_SingleBareResult(t *testing.T) {
	client := &mockClient{replies: []mockReply{{text: coffeeReply}}}
	c, _ := newTestClassifier(client)

	results := c.ClassifyBatch(context.Background(), "花了25元买咖啡")

	require.Len(t, results, 1)
	assert.Equal(t, model.RouteFinance, results[0].Route)
}

func TestClassifyBatch_RetriesBeforeSucceeding(t *testing.T) {
	client := &mockClient{replies: []mockReply{
		{text: `{"items":[]}`},
		{text: `{"items":[{"route_type":"inventory","data":{"name":"大米","quantity":2,"unit":"袋"}}]}`},
	}}
	c, sleeps := newTestClassifier(client)

	results := c.ClassifyBatch(context.Background(), "家里有两袋大米")

	require.Len(t, results, 1)
	assert.Equal(t, model.RouteInventory, results[0].Route)
	assert.Equal(t, 2, client.calls())
	assert.Len(t, sleeps.delays, 1)
}

func TestClassifyBatch_DegradesToClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		tail []mockReply
	}{
		{
			name: "single classification succeeds",
			text: "花了25元买咖啡",
			tail: []mockReply{{text: coffeeReply}},
		},
		{
			name: "single classification exhausts too",
			text: "今天天气不错",
			tail: []mockReply{transportFailure(), transportFailure(), transportFailure()},
		},
		{
			name: "single classification falls back to heuristic",
			text: "冰箱里还有两瓶牛奶",
			tail: []mockReply{{text: "nope"}, {text: "nope"}, {text: "nope"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batchFailures := []mockReply{{text: "garbage"}, {text: `{"items":[]}`}, transportFailure()}
			batchClient := &mockClient{replies: append(batchFailures, tt.tail...)}
			batchClassifier, _ := newTestClassifier(batchClient)

			singleClient := &mockClient{replies: tt.tail}
			singleClassifier, _ := newTestClassifier(singleClient)

			got := batchClassifier.ClassifyBatch(context.Background(), tt.text)
			want := singleClassifier.Classify(context.Background(), tt.text)

			require.Len(t, got, 1)
			assert.Equal(t, want, got[0])
			assert.Equal(t, len(batchFailures)+singleClient.calls(), batchClient.calls())
		})
	}
}

func TestClassifyBatch_EmptyInput(t *testing.T) {
	client := &mockClient{}
	c, _ := newTestClassifier(client)

	results := c.ClassifyBatch(context.Background(), "  ")

	require.Len(t, results, 1)
	assert.True(t, results[0].IsUnknown())
	assert.Zero(t, client.calls())
}
