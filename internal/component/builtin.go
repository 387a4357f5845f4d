package component

import "github.com/canvas-infra/patterns/internal/pattern"

// Catalog categories.
const (
	CategoryCompute    = "compute"
	CategoryNetwork    = "network"
	CategoryStorage    = "storage"
	CategoryDatabase   = "database"
	CategorySecurity   = "security"
	CategoryMessaging  = "messaging"
	CategoryMonitoring = "monitoring"
)

// RegisterBuiltins registers the built-in catalog into r.
func RegisterBuiltins(r *Registry) {
	for _, m := range networkComponents() {
		r.Register(m)
	}
	for _, m := range computeComponents() {
		r.Register(m)
	}
	for _, m := range dataComponents() {
		r.Register(m)
	}
	for _, m := range operationsComponents() {
		r.Register(m)
	}
}

func mappings(aws, azure, gcp ProviderMapping) map[string]ProviderMapping {
	out := make(map[string]ProviderMapping, 4)
	if aws.Name != "" {
		out[ProviderAWS] = aws
	}
	if azure.Name != "" {
		out[ProviderAzure] = azure
	}
	if gcp.Name != "" {
		out[ProviderGCP] = gcp
	}
	return out
}

func networkComponents() []Metadata {
	return []Metadata{
		{
			ID: "virtual-network", Name: "Virtual Network", Category: CategoryNetwork,
			Description: "Isolated private network",
			Tags:        []string{"vpc", "network"},
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon VPC", ResourceType: "aws_vpc", IconPath: "aws/vpc.svg"},
				ProviderMapping{Name: "Azure Virtual Network", ResourceType: "azurerm_virtual_network", IconPath: "azure/vnet.svg"},
				ProviderMapping{Name: "Google VPC Network", ResourceType: "google_compute_network", IconPath: "gcp/vpc.svg"},
			),
			DefaultConfig:  pattern.Properties{"cidr_block": "10.0.0.0/16", "enable_dns_support": true},
			RequiredConfig: []string{"cidr_block"},
		},
		{
			ID: "subnet", Name: "Subnet", Category: CategoryNetwork,
			Description: "Address range inside a virtual network",
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon VPC Subnet", ResourceType: "aws_subnet"},
				ProviderMapping{Name: "Azure Subnet", ResourceType: "azurerm_subnet"},
				ProviderMapping{Name: "Google Subnetwork", ResourceType: "google_compute_subnetwork"},
			),
			DefaultConfig:  pattern.Properties{"cidr_block": "10.0.1.0/24"},
			RequiredConfig: []string{"cidr_block"},
		},
		{
			ID: "load-balancer", Name: "Load Balancer", Category: CategoryNetwork,
			Description: "Distributes traffic across targets",
			Tags:        []string{"traffic", "ha"},
			ProviderMappings: mappings(
				ProviderMapping{Name: "Elastic Load Balancing", ResourceType: "aws_lb", IconPath: "aws/elb.svg"},
				ProviderMapping{Name: "Azure Load Balancer", ResourceType: "azurerm_lb", IconPath: "azure/lb.svg"},
				ProviderMapping{Name: "Cloud Load Balancing", ResourceType: "google_compute_forwarding_rule", IconPath: "gcp/lb.svg"},
			),
			DefaultConfig: pattern.Properties{"scheme": "internet-facing", "port": 443.0},
		},
		{
			ID: "api-gateway", Name: "API Gateway", Category: CategoryNetwork,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon API Gateway", ResourceType: "aws_apigatewayv2_api"},
				ProviderMapping{Name: "Azure API Management", ResourceType: "azurerm_api_management"},
				ProviderMapping{Name: "Google API Gateway", ResourceType: "google_api_gateway_api"},
			),
			DefaultConfig: pattern.Properties{"protocol": "HTTP"},
		},
		{
			ID: "cdn", Name: "Content Delivery Network", Category: CategoryNetwork,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon CloudFront", ResourceType: "aws_cloudfront_distribution"},
				ProviderMapping{Name: "Azure Front Door", ResourceType: "azurerm_cdn_frontdoor_profile"},
				ProviderMapping{Name: "Cloud CDN", ResourceType: "google_compute_backend_bucket"},
			),
		},
		{
			ID: "dns-zone", Name: "DNS Zone", Category: CategoryNetwork,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon Route 53", ResourceType: "aws_route53_zone"},
				ProviderMapping{Name: "Azure DNS", ResourceType: "azurerm_dns_zone"},
				ProviderMapping{Name: "Cloud DNS", ResourceType: "google_dns_managed_zone"},
			),
			RequiredConfig: []string{"domain"},
		},
	}
}

func computeComponents() []Metadata {
	return []Metadata{
		{
			ID: "compute-instance", Name: "Virtual Machine", Category: CategoryCompute,
			Description: "General purpose virtual machine",
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon EC2", ResourceType: "aws_instance", IconPath: "aws/ec2.svg"},
				ProviderMapping{Name: "Azure Virtual Machine", ResourceType: "azurerm_linux_virtual_machine", IconPath: "azure/vm.svg"},
				ProviderMapping{Name: "Compute Engine", ResourceType: "google_compute_instance", IconPath: "gcp/gce.svg"},
			),
			DefaultConfig:  pattern.Properties{"instance_type": "t3.micro"},
			RequiredConfig: []string{"instance_type"},
		},
		{
			ID: "serverless-function", Name: "Serverless Function", Category: CategoryCompute,
			ProviderMappings: mappings(
				ProviderMapping{Name: "AWS Lambda", ResourceType: "aws_lambda_function", IconPath: "aws/lambda.svg"},
				ProviderMapping{Name: "Azure Functions", ResourceType: "azurerm_linux_function_app", IconPath: "azure/functions.svg"},
				ProviderMapping{Name: "Cloud Functions", ResourceType: "google_cloudfunctions2_function", IconPath: "gcp/functions.svg"},
			),
			DefaultConfig:  pattern.Properties{"runtime": "python3.12", "memory_size": 128.0, "timeout": 3.0},
			RequiredConfig: []string{"runtime", "handler"},
		},
		{
			ID: "edge-function", Name: "Edge Function", Category: CategoryCompute,
			Description: "Function executed at CDN edge locations",
			ProviderMappings: mappings(
				ProviderMapping{Name: "Lambda@Edge", ResourceType: "aws_lambda_function"},
				ProviderMapping{},
				ProviderMapping{},
			),
		},
		{
			ID: "container-cluster", Name: "Container Cluster", Category: CategoryCompute,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon EKS", ResourceType: "aws_eks_cluster"},
				ProviderMapping{Name: "Azure Kubernetes Service", ResourceType: "azurerm_kubernetes_cluster"},
				ProviderMapping{Name: "Google Kubernetes Engine", ResourceType: "google_container_cluster"},
			),
			DefaultConfig: pattern.Properties{"node_count": 3.0},
		},
		{
			ID: "generic-service", Name: "Service", Category: CategoryCompute,
			Description: "Provider-neutral application service",
			ProviderMappings: map[string]ProviderMapping{
				ProviderGeneric: {Name: "Service"},
			},
		},
	}
}

func dataComponents() []Metadata {
	return []Metadata{
		{
			ID: "object-storage", Name: "Object Storage", Category: CategoryStorage,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon S3", ResourceType: "aws_s3_bucket", IconPath: "aws/s3.svg"},
				ProviderMapping{Name: "Azure Blob Storage", ResourceType: "azurerm_storage_account", IconPath: "azure/blob.svg"},
				ProviderMapping{Name: "Cloud Storage", ResourceType: "google_storage_bucket", IconPath: "gcp/gcs.svg"},
			),
			DefaultConfig: pattern.Properties{"versioning": true},
		},
		{
			ID: "relational-database", Name: "Relational Database", Category: CategoryDatabase,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon RDS", ResourceType: "aws_db_instance", IconPath: "aws/rds.svg"},
				ProviderMapping{Name: "Azure Database for PostgreSQL", ResourceType: "azurerm_postgresql_flexible_server"},
				ProviderMapping{Name: "Cloud SQL", ResourceType: "google_sql_database_instance"},
			),
			DefaultConfig:  pattern.Properties{"engine": "postgres", "instance_class": "db.t3.micro", "allocated_storage": 20.0},
			RequiredConfig: []string{"engine", "instance_class", "allocated_storage"},
		},
		{
			ID: "nosql-database", Name: "NoSQL Database", Category: CategoryDatabase,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon DynamoDB", ResourceType: "aws_dynamodb_table"},
				ProviderMapping{Name: "Azure Cosmos DB", ResourceType: "azurerm_cosmosdb_account"},
				ProviderMapping{Name: "Firestore", ResourceType: "google_firestore_database"},
			),
		},
		{
			ID: "cache", Name: "In-Memory Cache", Category: CategoryDatabase,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon ElastiCache", ResourceType: "aws_elasticache_cluster"},
				ProviderMapping{Name: "Azure Cache for Redis", ResourceType: "azurerm_redis_cache"},
				ProviderMapping{Name: "Memorystore", ResourceType: "google_redis_instance"},
			),
			DefaultConfig: pattern.Properties{"engine": "redis"},
		},
		{
			ID: "data-warehouse", Name: "Data Warehouse", Category: CategoryDatabase,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon Redshift", ResourceType: "aws_redshift_cluster"},
				ProviderMapping{Name: "Azure Synapse Analytics", ResourceType: "azurerm_synapse_workspace"},
				ProviderMapping{Name: "BigQuery", ResourceType: "google_bigquery_dataset"},
			),
		},
		{
			ID: "message-queue", Name: "Message Queue", Category: CategoryMessaging,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon SQS", ResourceType: "aws_sqs_queue"},
				ProviderMapping{Name: "Azure Service Bus", ResourceType: "azurerm_servicebus_queue"},
				ProviderMapping{Name: "Pub/Sub", ResourceType: "google_pubsub_topic"},
			),
		},
		{
			ID: "event-stream", Name: "Event Stream", Category: CategoryMessaging,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon Kinesis", ResourceType: "aws_kinesis_stream"},
				ProviderMapping{Name: "Azure Event Hubs", ResourceType: "azurerm_eventhub"},
				ProviderMapping{},
			),
			DefaultConfig: pattern.Properties{"shard_count": 1.0},
		},
	}
}

func operationsComponents() []Metadata {
	return []Metadata{
		{
			ID: "security-group", Name: "Firewall Rules", Category: CategorySecurity,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Security Group", ResourceType: "aws_security_group"},
				ProviderMapping{Name: "Network Security Group", ResourceType: "azurerm_network_security_group"},
				ProviderMapping{Name: "VPC Firewall Rules", ResourceType: "google_compute_firewall"},
			),
		},
		{
			ID: "secrets-manager", Name: "Secrets Store", Category: CategorySecurity,
			ProviderMappings: mappings(
				ProviderMapping{Name: "AWS Secrets Manager", ResourceType: "aws_secretsmanager_secret"},
				ProviderMapping{Name: "Azure Key Vault", ResourceType: "azurerm_key_vault"},
				ProviderMapping{Name: "Secret Manager", ResourceType: "google_secret_manager_secret"},
			),
		},
		{
			ID: "monitoring", Name: "Monitoring", Category: CategoryMonitoring,
			ProviderMappings: mappings(
				ProviderMapping{Name: "Amazon CloudWatch", ResourceType: "aws_cloudwatch_dashboard", IconPath: "aws/cloudwatch.svg"},
				ProviderMapping{Name: "Azure Monitor", ResourceType: "azurerm_monitor_action_group", IconPath: "azure/monitor.svg"},
				ProviderMapping{Name: "Cloud Monitoring", ResourceType: "google_monitoring_dashboard", IconPath: "gcp/monitoring.svg"},
			),
			DefaultConfig: pattern.Properties{"retention_days": 30.0},
		},
		{
			ID: "log-aggregator", Name: "Log Aggregation", Category: CategoryMonitoring,
			ProviderMappings: mappings(
				ProviderMapping{Name: "CloudWatch Logs", ResourceType: "aws_cloudwatch_log_group"},
				ProviderMapping{Name: "Log Analytics", ResourceType: "azurerm_log_analytics_workspace"},
				ProviderMapping{Name: "Cloud Logging", ResourceType: "google_logging_project_bucket_config"},
			),
		},
	}
}
