package zstd

import (
	"sync"

	"github.com/chronos-tachyon/assert"
)

var decoderContextPool = sync.Pool{
	New: func() interface{} {
		return newDecoderContext()
	},
}

func takeDecoderContext() *decoderContext {
	return decoderContextPool.Get().(*decoderContext)
}

func giveDecoderContext(ctx *decoderContext) {
	assert.NotNil(&ctx)
	ctx.reset()
	decoderContextPool.Put(ctx)
}

var encoderContextPool = sync.Pool{
	New: func() interface{} {
		return newEncoderContext()
	},
}

func takeEncoderContext() *encoderContext {
	return encoderContextPool.Get().(*encoderContext)
}

func giveEncoderContext(ctx *encoderContext) {
	assert.NotNil(&ctx)
	ctx.reset()
	encoderContextPool.Put(ctx)
}
