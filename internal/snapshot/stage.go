package snapshot

// Stage 表示快照读写链路中的处理阶段，用于在日志中标记错误发生的位置。
type Stage string

const (
	StageEncode     Stage = "encode"     // 对象图 -> 对象流字节
	StageCompress   Stage = "compress"   // 对象流字节 -> 压缩数据
	StageEncrypt    Stage = "encrypt"    // 压缩数据 -> 密文
	StageFrame      Stage = "frame"      // Envelope -> 长度前缀帧
	StageUnframe    Stage = "unframe"    // 长度前缀帧 -> Envelope
	StageVersion    Stage = "version"    // 版本检查
	StageDecrypt    Stage = "decrypt"    // 密文 -> 压缩数据
	StageDecompress Stage = "decompress" // 压缩数据 -> 对象流字节
	StageDecode     Stage = "decode"     // 对象流字节 -> 对象图
)
