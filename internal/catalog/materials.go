package catalog

import "momostation/backend/internal/domain"

// StandardMaterials is the baseline hub inventory: bulk momos tracked
// in pieces plus the packaged consumables.
var StandardMaterials = []domain.CentralMaterial{
	{ID: "momo-veg", Name: "Veg Momo (Bulk)", Unit: "pcs", Category: domain.MaterialMomo},
	{ID: "momo-chicken", Name: "Chicken Momo (Bulk)", Unit: "pcs", Category: domain.MaterialMomo},
	{ID: "momo-paneer", Name: "Paneer Momo (Bulk)", Unit: "pcs", Category: domain.MaterialMomo},
	{ID: "momo-chicken-cheese", Name: "Chicken Cheese Momo (Bulk)", Unit: "pcs", Category: domain.MaterialMomo},
	{ID: "momo-corn-cheese", Name: "Corn Cheese Momo (Bulk)", Unit: "pcs", Category: domain.MaterialMomo},
	{ID: "momo-kurkure", Name: "Kurkure Momo (Bulk)", Unit: "pcs", Category: domain.MaterialMomo},
	{ID: "momo-tandoori", Name: "Tandoori Momo (Bulk)", Unit: "pcs", Category: domain.MaterialMomo},
	{ID: "pkt-oil", Name: "Refined Cooking Oil", Unit: "ltr", Category: domain.MaterialPacket},
	{ID: "pkt-mayo", Name: "Mayonnaise", Unit: "pkt", Category: domain.MaterialPacket},
	{ID: "pkt-fries", Name: "French Fries (Bulk)", Unit: "pkt", Category: domain.MaterialPacket},
}
