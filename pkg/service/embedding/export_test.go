package embedding

type ChunkRange = chunkRange

var ChunkTexts = chunkTexts

func (r chunkRange) Size() int {
	return r.end - r.start
}
