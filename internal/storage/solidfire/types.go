// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

// ClusterInfo is the subset of GetClusterInfo the collector needs.
type ClusterInfo struct {
	Name string `json:"name"`
	MVIP string `json:"mvip"`
	SVIP string `json:"svip"`
	UUID string `json:"uuid"`
}

// Fault is one current cluster fault.
type Fault struct {
	ClusterFaultID int64  `json:"clusterFaultID"`
	Severity       string `json:"severity"`
	Code           string `json:"code"`
	Type           string `json:"type"`
	NodeID         int64  `json:"nodeID"`
	Details        string `json:"details"`
}

// ClusterStats holds GetClusterStats.clusterStats.
type ClusterStats struct {
	ClientQueueDepth     Number `json:"clientQueueDepth"`
	ClusterUtilization   Number `json:"clusterUtilization"`
	ReadOpsLastSample    Number `json:"readOpsLastSample"`
	ReadBytesLastSample  Number `json:"readBytesLastSample"`
	WriteOpsLastSample   Number `json:"writeOpsLastSample"`
	WriteBytesLastSample Number `json:"writeBytesLastSample"`
	ActualIOPS           Number `json:"actualIOPS"`
	LatencyUSec          Number `json:"latencyUSec"`
	NormalizedIOPS       Number `json:"normalizedIOPS"`
	ReadBytes            Number `json:"readBytes"`
	ReadLatencyUSec      Number `json:"readLatencyUSec"`
	ReadOps              Number `json:"readOps"`
	UnalignedReads       Number `json:"unalignedReads"`
	UnalignedWrites      Number `json:"unalignedWrites"`
	WriteLatencyUSec     Number `json:"writeLatencyUSec"`
	WriteOps             Number `json:"writeOps"`
	WriteBytes           Number `json:"writeBytes"`
}

func (s *ClusterStats) fields() []field {
	return []field{
		{"clientQueueDepth", s.ClientQueueDepth},
		{"clusterUtilization", s.ClusterUtilization},
		{"readOpsLastSample", s.ReadOpsLastSample},
		{"readBytesLastSample", s.ReadBytesLastSample},
		{"writeOpsLastSample", s.WriteOpsLastSample},
		{"writeBytesLastSample", s.WriteBytesLastSample},
		{"actualIOPS", s.ActualIOPS},
		{"latencyUSec", s.LatencyUSec},
		{"normalizedIOPS", s.NormalizedIOPS},
		{"readBytes", s.ReadBytes},
		{"readLatencyUSec", s.ReadLatencyUSec},
		{"readOps", s.ReadOps},
		{"unalignedReads", s.UnalignedReads},
		{"unalignedWrites", s.UnalignedWrites},
		{"writeLatencyUSec", s.WriteLatencyUSec},
		{"writeOps", s.WriteOps},
		{"writeBytes", s.WriteBytes},
	}
}

// ClusterCapacity holds GetClusterCapacity.clusterCapacity. The API reports
// timestamp as an ISO date string, so it coerces to NaN.
type ClusterCapacity struct {
	ActiveBlockSpace             Number `json:"activeBlockSpace"`
	ActiveSessions               Number `json:"activeSessions"`
	AverageIOPS                  Number `json:"averageIOPS"`
	ClusterRecentIOSize          Number `json:"clusterRecentIOSize"`
	CurrentIOPS                  Number `json:"currentIOPS"`
	MaxIOPS                      Number `json:"maxIOPS"`
	MaxOverProvisionableSpace    Number `json:"maxOverProvisionableSpace"`
	MaxProvisionedSpace          Number `json:"maxProvisionedSpace"`
	MaxUsedMetadataSpace         Number `json:"maxUsedMetadataSpace"`
	MaxUsedSpace                 Number `json:"maxUsedSpace"`
	NonZeroBlocks                Number `json:"nonZeroBlocks"`
	PeakActiveSessions           Number `json:"peakActiveSessions"`
	PeakIOPS                     Number `json:"peakIOPS"`
	ProvisionedSpace             Number `json:"provisionedSpace"`
	SnapshotNonZeroBlocks        Number `json:"snapshotNonZeroBlocks"`
	Timestamp                    Number `json:"timestamp"`
	TotalOps                     Number `json:"totalOps"`
	UniqueBlocks                 Number `json:"uniqueBlocks"`
	UniqueBlocksUsedSpace        Number `json:"uniqueBlocksUsedSpace"`
	UsedMetadataSpace            Number `json:"usedMetadataSpace"`
	UsedMetadataSpaceInSnapshots Number `json:"usedMetadataSpaceInSnapshots"`
	UsedSpace                    Number `json:"usedSpace"`
	ZeroBlocks                   Number `json:"zeroBlocks"`
}

func (c *ClusterCapacity) fields() []field {
	return []field{
		{"activeBlockSpace", c.ActiveBlockSpace},
		{"activeSessions", c.ActiveSessions},
		{"averageIOPS", c.AverageIOPS},
		{"clusterRecentIOSize", c.ClusterRecentIOSize},
		{"currentIOPS", c.CurrentIOPS},
		{"maxIOPS", c.MaxIOPS},
		{"maxOverProvisionableSpace", c.MaxOverProvisionableSpace},
		{"maxProvisionedSpace", c.MaxProvisionedSpace},
		{"maxUsedMetadataSpace", c.MaxUsedMetadataSpace},
		{"maxUsedSpace", c.MaxUsedSpace},
		{"nonZeroBlocks", c.NonZeroBlocks},
		{"peakActiveSessions", c.PeakActiveSessions},
		{"peakIOPS", c.PeakIOPS},
		{"provisionedSpace", c.ProvisionedSpace},
		{"snapshotNonZeroBlocks", c.SnapshotNonZeroBlocks},
		{"timestamp", c.Timestamp},
		{"totalOps", c.TotalOps},
		{"uniqueBlocks", c.UniqueBlocks},
		{"uniqueBlocksUsedSpace", c.UniqueBlocksUsedSpace},
		{"usedMetadataSpace", c.UsedMetadataSpace},
		{"usedMetadataSpaceInSnapshots", c.UsedMetadataSpaceInSnapshots},
		{"usedSpace", c.UsedSpace},
		{"zeroBlocks", c.ZeroBlocks},
	}
}

// Node is one entry of ListAllNodes.nodes.
type Node struct {
	NodeID int64  `json:"nodeID"`
	Name   string `json:"name"`
	MIP    string `json:"mip"`
}

// NodeStats is one entry of ListNodeStats.nodeStats.nodes.
type NodeStats struct {
	NodeID                    int64  `json:"nodeID"`
	CPU                       Number `json:"cpu"`
	UsedMemory                Number `json:"usedMemory"`
	NetworkUtilizationStorage Number `json:"networkUtilizationStorage"`
	NetworkUtilizationCluster Number `json:"networkUtilizationCluster"`
	CBytesOut                 Number `json:"cBytesOut"`
	CBytesIn                  Number `json:"cBytesIn"`
	SBytesOut                 Number `json:"sBytesOut"`
	SBytesIn                  Number `json:"sBytesIn"`
	MBytesOut                 Number `json:"mBytesOut"`
	MBytesIn                  Number `json:"mBytesIn"`
	ReadOps                   Number `json:"readOps"`
	WriteOps                  Number `json:"writeOps"`
}

func (n *NodeStats) fields() []field {
	return []field{
		{"cpu", n.CPU},
		{"usedMemory", n.UsedMemory},
		{"networkUtilizationStorage", n.NetworkUtilizationStorage},
		{"networkUtilizationCluster", n.NetworkUtilizationCluster},
		{"cBytesOut", n.CBytesOut},
		{"cBytesIn", n.CBytesIn},
		{"sBytesOut", n.SBytesOut},
		{"sBytesIn", n.SBytesIn},
		{"mBytesOut", n.MBytesOut},
		{"mBytesIn", n.MBytesIn},
		{"readOps", n.ReadOps},
		{"writeOps", n.WriteOps},
	}
}

// Volume is one entry of ListVolumes.volumes.
type Volume struct {
	VolumeID  int64  `json:"volumeID"`
	Name      string `json:"name"`
	AccountID int64  `json:"accountID"`
	Status    string `json:"status"`
}

// Account is GetAccountByID.account.
type Account struct {
	AccountID int64  `json:"accountID"`
	Username  string `json:"username"`
}

// VolumeStats is one entry of ListVolumeStatsByVolume.volumeStats.
type VolumeStats struct {
	VolumeID             int64  `json:"volumeID"`
	VolumeSize           Number `json:"volumeSize"`
	ZeroBlocks           Number `json:"zeroBlocks"`
	NonZeroBlocks        Number `json:"nonZeroBlocks"`
	VolumeUtilization    Number `json:"volumeUtilization"`
	ActualIOPS           Number `json:"actualIOPS"`
	AverageIOPSize       Number `json:"averageIOPSize"`
	Throttle             Number `json:"throttle"`
	BurstIOPSCredit      Number `json:"burstIOPSCredit"`
	ClientQueueDepth     Number `json:"clientQueueDepth"`
	LatencyUSec          Number `json:"latencyUSec"`
	WriteBytes           Number `json:"writeBytes"`
	WriteOps             Number `json:"writeOps"`
	WriteLatencyUSec     Number `json:"writeLatencyUSec"`
	UnalignedWrites      Number `json:"unalignedWrites"`
	ReadBytes            Number `json:"readBytes"`
	ReadOps              Number `json:"readOps"`
	ReadLatencyUSec      Number `json:"readLatencyUSec"`
	UnalignedReads       Number `json:"unalignedReads"`
	ReadBytesLastSample  Number `json:"readBytesLastSample"`
	ReadOpsLastSample    Number `json:"readOpsLastSample"`
	WriteBytesLastSample Number `json:"writeBytesLastSample"`
	WriteOpsLastSample   Number `json:"writeOpsLastSample"`
}

func (v *VolumeStats) fields() []field {
	return []field{
		{"volumeSize", v.VolumeSize},
		{"zeroBlocks", v.ZeroBlocks},
		{"nonZeroBlocks", v.NonZeroBlocks},
		{"volumeUtilization", v.VolumeUtilization},
		{"actualIOPS", v.ActualIOPS},
		{"averageIOPSize", v.AverageIOPSize},
		{"throttle", v.Throttle},
		{"burstIOPSCredit", v.BurstIOPSCredit},
		{"clientQueueDepth", v.ClientQueueDepth},
		{"latencyUSec", v.LatencyUSec},
		{"writeBytes", v.WriteBytes},
		{"writeOps", v.WriteOps},
		{"writeLatencyUSec", v.WriteLatencyUSec},
		{"unalignedWrites", v.UnalignedWrites},
		{"readBytes", v.ReadBytes},
		{"readOps", v.ReadOps},
		{"readLatencyUSec", v.ReadLatencyUSec},
		{"unalignedReads", v.UnalignedReads},
		{"readBytesLastSample", v.ReadBytesLastSample},
		{"readOpsLastSample", v.ReadOpsLastSample},
		{"writeBytesLastSample", v.WriteBytesLastSample},
		{"writeOpsLastSample", v.WriteOpsLastSample},
	}
}

// Drive is one entry of ListDrives.drives.
type Drive struct {
	DriveID int64  `json:"driveID"`
	NodeID  int64  `json:"nodeID"`
	Status  string `json:"status"`
	Type    string `json:"type"`
	Serial  string `json:"serial"`
	Slot    int    `json:"slot"`
}

var (
	driveStatuses = []string{"active", "available", "erasing", "failed", "removing"}
	driveTypes    = []string{"volume", "block", "unknown"}
	seedSeverity  = []string{"critical", "error", "warning"}
)
