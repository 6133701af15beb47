package cli

var (
	PrintInsights  = printInsights
	FilterInsights = filterInsights
	PrintMemories  = printMemories
	GetIndexConfig = getIndexConfig
)
